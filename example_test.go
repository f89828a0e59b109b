package ironlog_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/pkg/adapters/memory"
	"github.com/aretw0/ironlog/pkg/domain"
)

func ExampleNew() {
	bench := domain.NewExercise("alice", "bench", "Bench Press", "chest")
	bench.TimerEnabled = false
	catalog, err := memory.NewCatalogFrom(bench)
	if err != nil {
		log.Fatal(err)
	}
	templates, err := memory.NewTemplatesFrom(&domain.Template{
		ID: "push", UserID: "alice", Name: "Push", Slots: []domain.Slot{domain.Single("bench")},
	})
	if err != nil {
		log.Fatal(err)
	}

	eng, err := ironlog.New(ironlog.WithCatalog(catalog), ironlog.WithTemplates(templates))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	if _, err := eng.StartSession(ctx, "alice", "push"); err != nil {
		log.Fatal(err)
	}
	if _, err := eng.SetSetValue(ctx, "alice", 0, "bench", 0, domain.FieldWeight, 60); err != nil {
		log.Fatal(err)
	}
	if _, err := eng.ToggleSetCompletion(ctx, "alice", 0, 0); err != nil {
		log.Fatal(err)
	}

	rec, err := eng.EndSession(ctx, "alice", false)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Status, rec.Volume())
	// Output: completed 600
}
