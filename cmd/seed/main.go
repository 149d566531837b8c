package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"leadpilot/internal/config"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/repository"
	pg "leadpilot/internal/infra/db/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	leadRepo := pg.NewPostgresLeadRepo(pool)

	// If leads already exist, do nothing
	existing, err := leadRepo.ListPage(ctx, repository.NoTX, 1, 1, repository.LeadFilter{})
	if err != nil {
		log.Fatalf("list leads: %v", err)
	}
	if len(existing) > 0 {
		fmt.Println("leads already present. No changes.")
		return
	}

	// Demo prospects for trying the feed and unlock flow locally.
	seed := []struct {
		Company  string
		Desc     string
		Location string
		CNAE     string
		Segment  string
		Phone    string
		Email    string
		Hot      bool
	}{
		{"Padaria Pão Dourado", "Padaria e confeitaria de bairro", "São Paulo, SP", "4721-1", "comercio", "11999990001", "contato@paodourado.com.br", true},
		{"TechNova Sistemas", "Desenvolvimento de software sob encomenda", "Campinas, SP", "6201-5", "servicos", "19999990002", "vendas@technova.com.br", false},
		{"Clínica Vida Plena", "Atividade médica ambulatorial", "São José do Rio Preto, SP", "8630-5", "servicos", "17991610001", "recepcao@vidaplena.com.br", true},
		{"Metalúrgica Forte Aço", "Fabricação de estruturas metálicas", "Sorocaba, SP", "2511-0", "industria", "15999990004", "comercial@forteaco.com.br", false},
		{"Mercado Bom Preço", "Minimercado e mercearia", "Ribeirão Preto, SP", "4712-1", "comercio", "16999990005", "compras@bompreco.com.br", false},
		{"Transportadora Rota Sul", "Transporte rodoviário de carga", "São Paulo, SP", "4930-2", "servicos", "11999990006", "frete@rotasul.com.br", true},
		{"Estética Bella Forma", "Cabeleireiros e atividades de estética", "Barretos, SP", "9602-5", "servicos", "17999990007", "agenda@bellaforma.com.br", false},
		{"Construtora Alicerce", "Construção de edifícios", "Bauru, SP", "4120-4", "construcao", "14999990008", "obras@alicerce.com.br", false},
	}

	for _, s := range seed {
		lead, err := model.NewLead(uuid.NewString(), s.Company, s.Location)
		if err != nil {
			log.Fatalf("build lead %q: %v", s.Company, err)
		}
		lead.Description = s.Desc
		lead.CNAE = s.CNAE
		lead.Segment = s.Segment
		lead.Phone = s.Phone
		lead.Email = s.Email
		lead.IsHot = s.Hot
		if s.Hot {
			lead.OpenedAt = time.Now().Add(-2 * time.Hour)
		}
		if err := leadRepo.Save(ctx, repository.NoTX, lead); err != nil {
			log.Fatalf("save lead %q: %v", s.Company, err)
		}
		fmt.Printf("seeded: %s (id=%s, cnae=%s)\n", lead.CompanyName, lead.ID, lead.CNAE)
	}

	fmt.Println("✅ Seeding complete.")
}
