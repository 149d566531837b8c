package cnae

import (
	"strings"

	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CNAEDirectory = (*StaticDirectory)(nil)

// StaticDirectory serves the embedded CNAE table. The full IBGE registry is
// not shipped; this is the curated subset behind the search suggestions.
type StaticDirectory struct {
	entries []model.CNAE
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{entries: table}
}

const maxResults = 10

// Search matches the term against codes and descriptions, case-insensitively.
// An empty term returns the head of the table as the default suggestions.
func (d *StaticDirectory) Search(term string) []model.CNAE {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		n := maxResults
		if n > len(d.entries) {
			n = len(d.entries)
		}
		out := make([]model.CNAE, n)
		copy(out, d.entries[:n])
		return out
	}

	var out []model.CNAE
	for _, e := range d.entries {
		if strings.Contains(strings.ToLower(e.Code), term) ||
			strings.Contains(strings.ToLower(e.Description), term) {
			out = append(out, e)
			if len(out) == maxResults {
				break
			}
		}
	}
	return out
}

var table = []model.CNAE{
	{Code: "6201-5", Description: "Desenvolvimento de programas de computador sob encomenda"},
	{Code: "6202-3", Description: "Desenvolvimento e licenciamento de programas de computador customizáveis"},
	{Code: "6204-0", Description: "Consultoria em tecnologia da informação"},
	{Code: "6311-9", Description: "Tratamento de dados, provedores de serviços de aplicação e hospedagem"},
	{Code: "4711-3", Description: "Comércio varejista de mercadorias em geral - hipermercados"},
	{Code: "4712-1", Description: "Comércio varejista de mercadorias em geral - minimercados"},
	{Code: "4781-4", Description: "Comércio varejista de artigos do vestuário e acessórios"},
	{Code: "5611-2", Description: "Restaurantes e outros estabelecimentos de serviços de alimentação"},
	{Code: "5620-1", Description: "Serviços de catering, bufê e outros serviços de comida preparada"},
	{Code: "8599-6", Description: "Atividades de ensino não especificadas anteriormente"},
	{Code: "8550-3", Description: "Atividades de apoio à educação"},
	{Code: "8630-5", Description: "Atividade de atenção ambulatorial executada por médicos e odontólogos"},
	{Code: "8712-3", Description: "Atividades de fornecimento de infraestrutura de apoio e assistência a paciente no domicílio"},
	{Code: "9602-5", Description: "Cabeleireiros e outras atividades de tratamento de beleza"},
	{Code: "4120-4", Description: "Construção de edifícios"},
	{Code: "4399-1", Description: "Serviços especializados para construção não especificados anteriormente"},
	{Code: "4930-2", Description: "Transporte rodoviário de carga"},
	{Code: "5320-2", Description: "Atividades de malote e de entrega"},
	{Code: "6920-6", Description: "Atividades de contabilidade, consultoria e auditoria contábil e tributária"},
	{Code: "7020-4", Description: "Atividades de consultoria em gestão empresarial"},
	{Code: "7311-4", Description: "Agências de publicidade"},
	{Code: "7490-1", Description: "Atividades profissionais, científicas e técnicas não especificadas anteriormente"},
	{Code: "8211-3", Description: "Serviços combinados de escritório e apoio administrativo"},
	{Code: "9511-8", Description: "Reparação e manutenção de computadores e de equipamentos periféricos"},
}
