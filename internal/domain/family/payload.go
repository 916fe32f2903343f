package family

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"cepas/internal/domain/dates"
)

// Flag is a 0/1 column. It decodes from 0/1, true/false and the strings
// "0", "1", "true", "false", "sim" and "nao".
type Flag int16

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: flag: %v", ErrInvalidInput, err)
	}

	switch value := raw.(type) {
	case bool:
		*f = boolFlag(value)
		return nil
	case float64:
		if value == 0 || value == 1 {
			*f = Flag(value)
			return nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "sim", "s":
			*f = 1
			return nil
		case "0", "false", "nao", "não", "n":
			*f = 0
			return nil
		}
	}
	return fmt.Errorf("%w: flag must be 0 or 1, got %s", ErrInvalidInput, string(data))
}

func boolFlag(value bool) Flag {
	if value {
		return 1
	}
	return 0
}

// Payload is the nested body of create and update. Every field is optional
// on update; nil means "leave unchanged".
type Payload struct {
	Name               *string          `json:"name"`
	Migration          *string          `json:"migration"`
	OriginState        *string          `json:"originState"`
	OriginCity         *string          `json:"originCity"`
	ReceivesBenefit    *Flag            `json:"receivesBenefit"`
	HasHealthPlan      *Flag            `json:"hasHealthPlan"`
	HealthPlanProvider *string          `json:"healthPlanProvider"`
	Notes              *string          `json:"notes"`
	Address            *AddressInput    `json:"address"`
	Animal             *AnimalInput     `json:"animal"`
	Structure          *StructureInput  `json:"structure"`
	Sanitation         *SanitationInput `json:"sanitation"`
	Members            []MemberInput    `json:"members"`
	Interview          *InterviewInput  `json:"interview"`
}

type AddressInput struct {
	AreaID      *int64  `json:"areaId"`
	Block       *string `json:"block"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"houseNumber"`
	Complement  *string `json:"complement"`
}

type AnimalInput struct {
	HasAnimal *Flag   `json:"hasAnimal"`
	Count     *int    `json:"count"`
	Species   *string `json:"species"`
}

type StructureInput struct {
	DwellingType     *string `json:"dwellingType"`
	LotType          *string `json:"lotType"`
	CohabitationType *string `json:"cohabitationType"`
	Electricity      *Flag   `json:"electricity"`
	WallMaterial     *string `json:"wallMaterial"`
	FloorMaterial    *string `json:"floorMaterial"`
	RoofMaterial     *string `json:"roofMaterial"`
	Rooms            *int    `json:"rooms"`
	Beds             *int    `json:"beds"`
}

type SanitationInput struct {
	Garden         *Flag   `json:"garden"`
	FruitTree      *Flag   `json:"fruitTree"`
	Bathroom       *Flag   `json:"bathroom"`
	Sewage         *string `json:"sewage"`
	Waste          *string `json:"waste"`
	DrinkingWater  *string `json:"drinkingWater"`
	WaterTreatment *string `json:"waterTreatment"`
}

type MemberInput struct {
	ID            *int64             `json:"id"`
	Name          *string            `json:"name"`
	BirthDate     *string            `json:"birthDate"`
	Relation      *string            `json:"relation"`
	Occupation    *string            `json:"occupation"`
	Sex           *string            `json:"sex"`
	Race          *string            `json:"race"`
	MaritalStatus *string            `json:"maritalStatus"`
	Literate      *Flag              `json:"literate"`
	Religion      *string            `json:"religion"`
	Health        *HealthInput       `json:"health"`
	ChildProgram  *ChildProgramInput `json:"childProgram"`
}

type HealthInput struct {
	Hypertension       *Flag   `json:"hypertension"`
	Diabetes           *Flag   `json:"diabetes"`
	Smoking            *Flag   `json:"smoking"`
	Alcoholism         *Flag   `json:"alcoholism"`
	DrugUse            *Flag   `json:"drugUse"`
	Disability         *Flag   `json:"disability"`
	MentalDisorder     *Flag   `json:"mentalDisorder"`
	HeartDisease       *Flag   `json:"heartDisease"`
	RespiratoryDisease *Flag   `json:"respiratoryDisease"`
	Pregnant           *Flag   `json:"pregnant"`
	OtherConditions    *string `json:"otherConditions"`
}

type ChildProgramInput struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Shift     *string `json:"shift"`
	Activity  *string `json:"activity"`
	Notes     *string `json:"notes"`
}

type InterviewInput struct {
	Date            *string `json:"date"`
	IntervieweeName *string `json:"intervieweeName"`
	ContactPhone    *string `json:"contactPhone"`
	Notes           *string `json:"notes"`
	NextVisit       *string `json:"nextVisit"`
	MonitorID       *int64  `json:"monitorId"`
}

// columns maps store column names to values. A nil value writes NULL.
type columns map[string]any

func (c columns) text(name string, value *string) {
	if value != nil {
		c[name] = strings.TrimSpace(*value)
	}
}

// enum writes NULL for a blank value so CHECK constraints only see real choices.
func (c columns) enum(name string, value *string) {
	if value == nil {
		return
	}
	if trimmed := strings.TrimSpace(*value); trimmed != "" {
		c[name] = trimmed
		return
	}
	c[name] = nil
}

func (c columns) flag(name string, value *Flag) {
	if value != nil {
		c[name] = int16(*value)
	}
}

func (c columns) number(name string, value *int) {
	if value != nil {
		c[name] = *value
	}
}

func (c columns) ref(name string, value *int64) {
	if value != nil {
		c[name] = *value
	}
}

func (c columns) date(name string, value *string) error {
	if value == nil {
		return nil
	}
	parsed, err := dates.Parse(*value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	}
	if parsed == nil {
		c[name] = nil
		return nil
	}
	c[name] = *parsed
	return nil
}

func (c columns) has(name string) bool {
	value, ok := c[name]
	if !ok || value == nil {
		return false
	}
	if text, isText := value.(string); isText {
		return text != ""
	}
	return true
}

// meaningful reports whether any column carries a non-null, non-blank value.
func (c columns) meaningful() bool {
	for name := range c {
		if c.has(name) {
			return true
		}
	}
	return false
}

func (c columns) with(extra map[string]any) columns {
	merged := make(columns, len(c)+len(extra))
	for name, value := range c {
		merged[name] = value
	}
	for name, value := range extra {
		merged[name] = value
	}
	return merged
}

type plan struct {
	family     columns
	address    columns
	animal     columns
	structure  columns
	sanitation columns
	members    []memberPlan
	interview  columns
	monitorID  *int64
}

// empty reports whether the payload names no section to write.
func (p *plan) empty() bool {
	return len(p.family) == 0 && len(p.address) == 0 && len(p.animal) == 0 &&
		len(p.structure) == 0 && len(p.sanitation) == 0 && len(p.members) == 0 && p.interview == nil
}

type memberPlan struct {
	id     *int64
	values columns
	health columns
	child  columns
}

// plan validates the payload and converts it to column maps before anything
// is written. A create additionally requires a non-blank name.
func (p Payload) plan(create bool) (*plan, error) {
	if create && (p.Name == nil || strings.TrimSpace(*p.Name) == "") {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", ErrInvalidInput)
	}

	out := &plan{family: columns{}}
	out.family.text("nome", p.Name)
	out.family.text("migracao", p.Migration)
	out.family.text("estado_origem", p.OriginState)
	out.family.text("cidade_origem", p.OriginCity)
	out.family.flag("recebe_beneficio", p.ReceivesBenefit)
	out.family.flag("possui_plano_saude", p.HasHealthPlan)
	out.family.text("convenio", p.HealthPlanProvider)
	out.family.text("observacoes", p.Notes)

	if a := p.Address; a != nil {
		out.address = columns{}
		out.address.ref("area_id", a.AreaID)
		out.address.text("quadra", a.Block)
		out.address.text("rua", a.Street)
		out.address.text("numero_casa", a.HouseNumber)
		out.address.text("complemento", a.Complement)
	}

	if a := p.Animal; a != nil {
		out.animal = columns{}
		out.animal.flag("tem_animal", a.HasAnimal)
		out.animal.number("quantidade", a.Count)
		out.animal.text("especie", a.Species)
	}

	if s := p.Structure; s != nil {
		out.structure = columns{}
		out.structure.enum("tipo_habitacao", s.DwellingType)
		out.structure.enum("tipo_lote", s.LotType)
		out.structure.text("tipo_convivencia", s.CohabitationType)
		out.structure.flag("energia_eletrica", s.Electricity)
		out.structure.text("material_parede", s.WallMaterial)
		out.structure.text("material_piso", s.FloorMaterial)
		out.structure.text("material_cobertura", s.RoofMaterial)
		out.structure.number("qtd_comodos", s.Rooms)
		out.structure.number("qtd_camas", s.Beds)
	}

	if s := p.Sanitation; s != nil {
		out.sanitation = columns{}
		out.sanitation.flag("horta", s.Garden)
		out.sanitation.flag("arvore_frutifera", s.FruitTree)
		out.sanitation.flag("banheiro", s.Bathroom)
		out.sanitation.enum("destino_esgoto", s.Sewage)
		out.sanitation.enum("destino_lixo", s.Waste)
		out.sanitation.enum("agua_beber", s.DrinkingWater)
		out.sanitation.enum("tratamento_agua", s.WaterTreatment)
	}

	for i, m := range p.Members {
		member, err := m.plan()
		if err != nil {
			return nil, fmt.Errorf("members[%d]: %w", i, err)
		}
		out.members = append(out.members, member)
	}

	if in := p.Interview; in != nil {
		out.interview = columns{}
		if err := out.interview.date("data_entrevista", in.Date); err != nil {
			return nil, fmt.Errorf("interview: %w", err)
		}
		if err := out.interview.date("proxima_visita", in.NextVisit); err != nil {
			return nil, fmt.Errorf("interview: %w", err)
		}
		out.interview.text("entrevistado", in.IntervieweeName)
		out.interview.text("telefone_contato", in.ContactPhone)
		out.interview.text("observacoes", in.Notes)
		out.monitorID = in.MonitorID
	}

	return out, nil
}

func (m MemberInput) plan() (memberPlan, error) {
	out := memberPlan{id: m.ID, values: columns{}}
	out.values.text("nome", m.Name)
	if err := out.values.date("data_nascimento", m.BirthDate); err != nil {
		return memberPlan{}, err
	}
	out.values.text("parentesco", m.Relation)
	out.values.text("ocupacao", m.Occupation)
	out.values.text("sexo", m.Sex)
	out.values.text("raca", m.Race)
	out.values.text("estado_civil", m.MaritalStatus)
	out.values.flag("alfabetizado", m.Literate)
	out.values.text("religiao", m.Religion)

	if h := m.Health; h != nil {
		out.health = columns{}
		out.health.flag("hipertensao", h.Hypertension)
		out.health.flag("diabetes", h.Diabetes)
		out.health.flag("tabagismo", h.Smoking)
		out.health.flag("alcoolismo", h.Alcoholism)
		out.health.flag("uso_drogas", h.DrugUse)
		out.health.flag("deficiencia", h.Disability)
		out.health.flag("transtorno_mental", h.MentalDisorder)
		out.health.flag("doenca_cardiaca", h.HeartDisease)
		out.health.flag("doenca_respiratoria", h.RespiratoryDisease)
		out.health.flag("gestante", h.Pregnant)
		out.health.text("outras_condicoes", h.OtherConditions)
	}

	if c := m.ChildProgram; c != nil {
		out.child = columns{}
		if err := out.child.date("data_inicio", c.StartDate); err != nil {
			return memberPlan{}, fmt.Errorf("childProgram: %w", err)
		}
		if err := out.child.date("data_fim", c.EndDate); err != nil {
			return memberPlan{}, fmt.Errorf("childProgram: %w", err)
		}
		out.child.text("turno", c.Shift)
		out.child.text("atividade", c.Activity)
		out.child.text("observacoes", c.Notes)
	}

	return out, nil
}

// healthWorthStoring is true when a condition is flagged or described.
func healthWorthStoring(values columns) bool {
	for name, value := range values {
		switch typed := value.(type) {
		case int16:
			if typed == 1 {
				return true
			}
		case string:
			if name == "outras_condicoes" && typed != "" {
				return true
			}
		}
	}
	return false
}

// childWorthStoring is true when a start date, shift or activity is given.
func childWorthStoring(values columns) bool {
	return values.has("data_inicio") || values.has("turno") || values.has("atividade")
}
