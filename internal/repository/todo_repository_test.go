package repository

import (
	"testing"

	"github.com/taskhub/taskhub/internal/domain"
)

func TestTodoRepositoryCreateAndList(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.Todo{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewTodoRepository(db)

	for _, text := range []string{"buy milk", "water plants", "call dentist"} {
		if err := repo.Create(&domain.Todo{Todo: text}); err != nil {
			t.Fatalf("create %q: %v", text, err)
		}
	}

	todos, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(todos))
	}
	// Newest first.
	if todos[0].Todo != "call dentist" || todos[2].Todo != "buy milk" {
		t.Fatalf("unexpected order: %q .. %q", todos[0].Todo, todos[2].Todo)
	}
	if todos[0].ID == 0 || todos[0].CreatedAt.IsZero() {
		t.Fatal("expected populated ID and timestamps")
	}
}
