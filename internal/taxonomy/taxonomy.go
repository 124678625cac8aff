// Package taxonomy holds the closed category set and the classifier that maps
// free-text categories onto it.
package taxonomy

// Categories accepted by the site, in tie-breaking order.
const (
	Politica       = "Política"
	Economia       = "Economia"
	Esportes       = "Esportes"
	Tecnologia     = "Tecnologia"
	Saude          = "Saúde"
	Entretenimento = "Entretenimento"
	Internacional  = "Internacional"
	Cidades        = "Cidades"
	Urgente        = "Urgente"
	Geral          = "Geral"
)

// Alias maps a lower-case fragment of a free-text category to a category.
type Alias struct {
	Key      string
	Category string
}

// Tables is the pure data the classifier runs on.
type Tables struct {
	Categories []string
	Aliases    []Alias
	Keywords   map[string][]string
	Default    string
	Breaking   string
}

// Contains reports whether name is a taxonomy member.
func (t Tables) Contains(name string) bool {
	for _, c := range t.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultTables returns the production tables.
func DefaultTables() Tables {
	return Tables{
		Categories: []string{
			Politica, Economia, Esportes, Tecnologia, Saude,
			Entretenimento, Internacional, Cidades, Urgente, Geral,
		},
		Aliases: []Alias{
			{Key: "politica", Category: Politica},
			{Key: "política", Category: Politica},
			{Key: "politics", Category: Politica},
			{Key: "eleic", Category: Politica},
			{Key: "eleiç", Category: Politica},
			{Key: "economi", Category: Economia},
			{Key: "finan", Category: Economia},
			{Key: "mercado", Category: Economia},
			{Key: "negócio", Category: Economia},
			{Key: "negocio", Category: Economia},
			{Key: "business", Category: Economia},
			{Key: "esporte", Category: Esportes},
			{Key: "futebol", Category: Esportes},
			{Key: "sport", Category: Esportes},
			{Key: "tecnolog", Category: Tecnologia},
			{Key: "tech", Category: Tecnologia},
			{Key: "ciência", Category: Tecnologia},
			{Key: "ciencia", Category: Tecnologia},
			{Key: "saude", Category: Saude},
			{Key: "saúde", Category: Saude},
			{Key: "health", Category: Saude},
			{Key: "entretenimento", Category: Entretenimento},
			{Key: "cultura", Category: Entretenimento},
			{Key: "celebridade", Category: Entretenimento},
			{Key: "entertainment", Category: Entretenimento},
			{Key: "mundo", Category: Internacional},
			{Key: "internacional", Category: Internacional},
			{Key: "world", Category: Internacional},
			{Key: "cidade", Category: Cidades},
			{Key: "local", Category: Cidades},
			{Key: "urgente", Category: Urgente},
			{Key: "breaking", Category: Urgente},
			{Key: "última hora", Category: Urgente},
			{Key: "ultima hora", Category: Urgente},
		},
		Keywords: map[string][]string{
			Politica: {
				"senado", "lei", "governo", "congresso", "deputad", "senador",
				"ministro", "presidente", "eleição", "câmara", "partido", "stf",
				"prefeito", "governador", "votação", "política",
			},
			Economia: {
				"economia", "inflação", "juros", "mercado", "dólar", "bolsa",
				"pib", "empresa", "banco", "investimento", "imposto", "salário",
			},
			Esportes: {
				"futebol", "jogo", "campeonato", "gols", "atleta", "seleção",
				"copa", "partida", "técnico", "torcida", "olímpi",
			},
			Tecnologia: {
				"tecnologia", "internet", "aplicativo", "software", "celular",
				"inteligência artificial", "startup", "digital", "computador",
				"ciência", "pesquisa",
			},
			Saude: {
				"saúde", "hospital", "vacina", "médico", "doença", "anvisa",
				"paciente", "tratamento", "vírus", "epidemia",
			},
			Entretenimento: {
				"filme", "música", "série", "cantor", "atriz", "ator",
				"show", "novela", "festival", "celebridade",
			},
			Internacional: {
				"eua", "china", "europa", "guerra", "onu", "internacional",
				"estados unidos", "rússia", "ucrânia", "exterior",
			},
			Cidades: {
				"prefeitura", "trânsito", "bairro", "chuva", "polícia",
				"moradores", "obra", "transporte", "acidente",
			},
			Urgente: {
				"urgente", "última hora", "agora", "alerta",
			},
		},
		Default:  Geral,
		Breaking: Urgente,
	}
}
