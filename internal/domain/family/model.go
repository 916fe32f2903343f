package family

import (
	"strings"
	"time"
)

// Table is a persisted row type of the aggregate.
type Table interface {
	TableName() string
}

// Owned is a dependent row that references its parent through OwnerColumn.
type Owned interface {
	Table
	OwnerColumn() string
}

type Family struct {
	ID                 int64     `gorm:"column:id;primaryKey" json:"id"`
	Name               string    `gorm:"column:nome;not null" json:"name"`
	Migration          string    `gorm:"column:migracao" json:"migration"`
	OriginState        string    `gorm:"column:estado_origem" json:"originState"`
	OriginCity         string    `gorm:"column:cidade_origem" json:"originCity"`
	ReceivesBenefit    int16     `gorm:"column:recebe_beneficio" json:"receivesBenefit"`
	HasHealthPlan      int16     `gorm:"column:possui_plano_saude" json:"hasHealthPlan"`
	HealthPlanProvider string    `gorm:"column:convenio" json:"healthPlanProvider"`
	Notes              string    `gorm:"column:observacoes" json:"notes"`
	AuditUser          string    `gorm:"column:usuario" json:"auditUser"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Family) TableName() string { return "familia" }

type Address struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	FamilyID    int64  `gorm:"column:familia_id" json:"-"`
	AreaID      *int64 `gorm:"column:area_id" json:"areaId"`
	Block       string `gorm:"column:quadra" json:"block"`
	Street      string `gorm:"column:rua" json:"street"`
	HouseNumber string `gorm:"column:numero_casa" json:"houseNumber"`
	Complement  string `gorm:"column:complemento" json:"complement"`
}

func (Address) TableName() string   { return "endereco" }
func (Address) OwnerColumn() string { return "familia_id" }

type Animal struct {
	ID        int64  `gorm:"column:id;primaryKey" json:"id"`
	FamilyID  int64  `gorm:"column:familia_id" json:"-"`
	HasAnimal int16  `gorm:"column:tem_animal" json:"hasAnimal"`
	Count     *int   `gorm:"column:quantidade" json:"count"`
	Species   string `gorm:"column:especie" json:"species"`
}

func (Animal) TableName() string   { return "animal" }
func (Animal) OwnerColumn() string { return "familia_id" }

type HousingStructure struct {
	ID               int64  `gorm:"column:id;primaryKey" json:"id"`
	FamilyID         int64  `gorm:"column:familia_id" json:"-"`
	DwellingType     string `gorm:"column:tipo_habitacao" json:"dwellingType"`
	LotType          string `gorm:"column:tipo_lote" json:"lotType"`
	CohabitationType string `gorm:"column:tipo_convivencia" json:"cohabitationType"`
	Electricity      int16  `gorm:"column:energia_eletrica" json:"electricity"`
	WallMaterial     string `gorm:"column:material_parede" json:"wallMaterial"`
	FloorMaterial    string `gorm:"column:material_piso" json:"floorMaterial"`
	RoofMaterial     string `gorm:"column:material_cobertura" json:"roofMaterial"`
	Rooms            *int   `gorm:"column:qtd_comodos" json:"rooms"`
	Beds             *int   `gorm:"column:qtd_camas" json:"beds"`
}

func (HousingStructure) TableName() string   { return "estrutura_habitacao" }
func (HousingStructure) OwnerColumn() string { return "familia_id" }

type SanitationResource struct {
	ID             int64  `gorm:"column:id;primaryKey" json:"id"`
	FamilyID       int64  `gorm:"column:familia_id" json:"-"`
	Garden         int16  `gorm:"column:horta" json:"garden"`
	FruitTree      int16  `gorm:"column:arvore_frutifera" json:"fruitTree"`
	Bathroom       int16  `gorm:"column:banheiro" json:"bathroom"`
	Sewage         string `gorm:"column:destino_esgoto" json:"sewage"`
	Waste          string `gorm:"column:destino_lixo" json:"waste"`
	DrinkingWater  string `gorm:"column:agua_beber" json:"drinkingWater"`
	WaterTreatment string `gorm:"column:tratamento_agua" json:"waterTreatment"`
}

func (SanitationResource) TableName() string   { return "recurso_saneamento" }
func (SanitationResource) OwnerColumn() string { return "familia_id" }

type Member struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	FamilyID      int64      `gorm:"column:familia_id"`
	Name          string     `gorm:"column:nome"`
	BirthDate     *time.Time `gorm:"column:data_nascimento;type:date"`
	Relation      string     `gorm:"column:parentesco"`
	Occupation    string     `gorm:"column:ocupacao"`
	Sex           string     `gorm:"column:sexo"`
	Race          string     `gorm:"column:raca"`
	MaritalStatus string     `gorm:"column:estado_civil"`
	Literate      int16      `gorm:"column:alfabetizado"`
	Religion      string     `gorm:"column:religiao"`
	AuditUser     string     `gorm:"column:usuario"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string   { return "membro" }
func (Member) OwnerColumn() string { return "familia_id" }

type MemberHealth struct {
	ID                 int64  `gorm:"column:id;primaryKey" json:"id"`
	MemberID           int64  `gorm:"column:membro_id" json:"-"`
	Hypertension       int16  `gorm:"column:hipertensao" json:"hypertension"`
	Diabetes           int16  `gorm:"column:diabetes" json:"diabetes"`
	Smoking            int16  `gorm:"column:tabagismo" json:"smoking"`
	Alcoholism         int16  `gorm:"column:alcoolismo" json:"alcoholism"`
	DrugUse            int16  `gorm:"column:uso_drogas" json:"drugUse"`
	Disability         int16  `gorm:"column:deficiencia" json:"disability"`
	MentalDisorder     int16  `gorm:"column:transtorno_mental" json:"mentalDisorder"`
	HeartDisease       int16  `gorm:"column:doenca_cardiaca" json:"heartDisease"`
	RespiratoryDisease int16  `gorm:"column:doenca_respiratoria" json:"respiratoryDisease"`
	Pregnant           int16  `gorm:"column:gestante" json:"pregnant"`
	OtherConditions    string `gorm:"column:outras_condicoes" json:"otherConditions"`
}

func (MemberHealth) TableName() string   { return "saude_membro" }
func (MemberHealth) OwnerColumn() string { return "membro_id" }

type ChildProgram struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	MemberID  int64      `gorm:"column:membro_id"`
	StartDate *time.Time `gorm:"column:data_inicio;type:date"`
	EndDate   *time.Time `gorm:"column:data_fim;type:date"`
	Shift     string     `gorm:"column:turno"`
	Activity  string     `gorm:"column:atividade"`
	Notes     string     `gorm:"column:observacoes"`
}

func (ChildProgram) TableName() string   { return "crianca_cepas" }
func (ChildProgram) OwnerColumn() string { return "membro_id" }

// LatestInterview is the most recent interview of a family with its first
// linked monitor.
type LatestInterview struct {
	ID              int64
	Date            time.Time
	IntervieweeName string
	ContactPhone    string
	Notes           string
	NextVisit       *time.Time
	MonitorID       *int64
	MonitorName     string
}

// OverviewRow is one family of the list view as loaded from the store.
type OverviewRow struct {
	ID             int64
	Name           string
	AreaName       string
	Block          string
	Street         string
	HouseNumber    string
	Complement     string
	MemberCount    int
	ActiveChildren int
	LastInterview  *time.Time
}

// Aggregate is the denormalized read model of one family, shaped for form
// pre-fill: dates are YYYY-MM-DD strings and absent text is "".
type Aggregate struct {
	Family
	Address    Address            `json:"address"`
	Animal     Animal             `json:"animal"`
	Structure  HousingStructure   `json:"structure"`
	Sanitation SanitationResource `json:"sanitation"`
	Members    []MemberView       `json:"members"`
	Interview  InterviewView      `json:"interview"`
}

type MemberView struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	BirthDate     string            `json:"birthDate"`
	Relation      string            `json:"relation"`
	Occupation    string            `json:"occupation"`
	Sex           string            `json:"sex"`
	Race          string            `json:"race"`
	MaritalStatus string            `json:"maritalStatus"`
	Literate      int16             `json:"literate"`
	Religion      string            `json:"religion"`
	Health        *MemberHealth     `json:"health"`
	ChildProgram  *ChildProgramView `json:"childProgram"`
}

type ChildProgramView struct {
	ID        int64  `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Shift     string `json:"shift"`
	Activity  string `json:"activity"`
	Notes     string `json:"notes"`
	Active    bool   `json:"active"`
}

type InterviewView struct {
	ID              int64  `json:"id"`
	Date            string `json:"date"`
	IntervieweeName string `json:"intervieweeName"`
	ContactPhone    string `json:"contactPhone"`
	Notes           string `json:"notes"`
	NextVisit       string `json:"nextVisit"`
	MonitorID       *int64 `json:"monitorId"`
	MonitorName     string `json:"monitorName"`
}

// ListItem is one row of the family list.
type ListItem struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Area           string `json:"area"`
	Address        string `json:"address"`
	Responsible    string `json:"responsible"`
	MemberCount    int    `json:"memberCount"`
	ActiveChildren int    `json:"activeChildren"`
	LastInterview  string `json:"lastInterview"`
	DaysSinceLast  *int   `json:"daysSinceLast"`
	Status         string `json:"status"`
}

// Report records the outcome of every section of an update or delete.
type Report struct {
	Total    int64             `json:"totalAffected"`
	Sections map[string]string `json:"report"`
	Warnings []string          `json:"warnings"`
}

func newReport() *Report {
	return &Report{Sections: make(map[string]string), Warnings: []string{}}
}

// Failed reports whether any section recorded an error.
func (r *Report) Failed() bool {
	for _, outcome := range r.Sections {
		if strings.HasPrefix(outcome, errorPrefix) {
			return true
		}
	}
	return false
}

type CreateResult struct {
	Aggregate *Aggregate `json:"family"`
	Warnings  []string   `json:"warnings"`
}
