package records

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Entity describes one table reachable through the generic record routes.
type Entity struct {
	Name       string
	Table      string
	PrimaryKey string
	Columns    []string
}

func (e Entity) HasColumn(column string) bool {
	for _, c := range e.Columns {
		if c == column {
			return true
		}
	}
	return false
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var registry = []Entity{
	{Name: "Monitor", Table: "monitor", PrimaryKey: "id", Columns: []string{"nome", "telefone", "email", "observacoes"}},
	{Name: "Area", Table: "area", PrimaryKey: "id", Columns: []string{"nome", "descricao"}},
	{Name: "Familia", Table: "familia", PrimaryKey: "id", Columns: []string{
		"nome", "migracao", "estado_origem", "cidade_origem", "recebe_beneficio",
		"possui_plano_saude", "convenio", "observacoes", "usuario",
	}},
	{Name: "Entrevista", Table: "entrevista", PrimaryKey: "id", Columns: []string{
		"familia_id", "data_entrevista", "entrevistado", "telefone_contato", "observacoes",
		"proxima_visita", "usuario",
	}},
	{Name: "EntrevistaMonitor", Table: "entrevista_monitor", PrimaryKey: "id", Columns: []string{"entrevista_id", "monitor_id"}},
	{Name: "Endereco", Table: "endereco", PrimaryKey: "id", Columns: []string{
		"familia_id", "area_id", "quadra", "rua", "numero_casa", "complemento",
	}},
	{Name: "Membro", Table: "membro", PrimaryKey: "id", Columns: []string{
		"familia_id", "nome", "data_nascimento", "parentesco", "ocupacao", "sexo", "raca",
		"estado_civil", "alfabetizado", "religiao", "usuario",
	}},
	{Name: "Animal", Table: "animal", PrimaryKey: "id", Columns: []string{"familia_id", "tem_animal", "quantidade", "especie"}},
	{Name: "EstruturaHabitacao", Table: "estrutura_habitacao", PrimaryKey: "id", Columns: []string{
		"familia_id", "tipo_habitacao", "tipo_lote", "tipo_convivencia", "energia_eletrica",
		"material_parede", "material_piso", "material_cobertura", "qtd_comodos", "qtd_camas",
	}},
	{Name: "RecursoSaneamento", Table: "recurso_saneamento", PrimaryKey: "id", Columns: []string{
		"familia_id", "horta", "arvore_frutifera", "banheiro", "destino_esgoto", "destino_lixo",
		"agua_beber", "tratamento_agua",
	}},
	{Name: "SaudeMembro", Table: "saude_membro", PrimaryKey: "id", Columns: []string{
		"membro_id", "hipertensao", "diabetes", "tabagismo", "alcoolismo", "uso_drogas",
		"deficiencia", "transtorno_mental", "doenca_cardiaca", "doenca_respiratoria", "gestante",
		"outras_condicoes",
	}},
	{Name: "CriancaCepas", Table: "crianca_cepas", PrimaryKey: "id", Columns: []string{
		"membro_id", "data_inicio", "data_fim", "turno", "atividade", "observacoes",
	}},
}

// ValidateRegistry checks every identifier that ends up in SQL. It runs at
// startup so a bad entry stops the process instead of reaching a query.
func ValidateRegistry() error {
	return validate(registry)
}

func validate(entities []Entity) error {
	names := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		key := strings.ToLower(entity.Name)
		if _, dup := names[key]; dup {
			return fmt.Errorf("entity %q registered twice", entity.Name)
		}
		names[key] = struct{}{}

		if !identifierPattern.MatchString(entity.Table) {
			return fmt.Errorf("entity %q: invalid table %q", entity.Name, entity.Table)
		}
		if !identifierPattern.MatchString(entity.PrimaryKey) {
			return fmt.Errorf("entity %q: invalid primary key %q", entity.Name, entity.PrimaryKey)
		}
		if len(entity.Columns) == 0 {
			return fmt.Errorf("entity %q: no columns", entity.Name)
		}
		seen := make(map[string]struct{}, len(entity.Columns))
		for _, column := range entity.Columns {
			if !identifierPattern.MatchString(column) {
				return fmt.Errorf("entity %q: invalid column %q", entity.Name, column)
			}
			if column == entity.PrimaryKey {
				return fmt.Errorf("entity %q: primary key %q is not writable", entity.Name, column)
			}
			if _, dup := seen[column]; dup {
				return fmt.Errorf("entity %q: column %q listed twice", entity.Name, column)
			}
			seen[column] = struct{}{}
		}
	}
	return nil
}

// Lookup resolves a logical entity name, ignoring case.
func Lookup(name string) (Entity, error) {
	for _, entity := range registry {
		if strings.EqualFold(entity.Name, strings.TrimSpace(name)) {
			return entity, nil
		}
	}
	return Entity{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEntity, name, strings.Join(Names(), ", "))
}

// Names lists the registered entity names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, entity := range registry {
		names = append(names, entity.Name)
	}
	sort.Strings(names)
	return names
}
