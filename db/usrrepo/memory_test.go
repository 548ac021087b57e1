package usrrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/db/usrrepo"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := usrrepo.NewMemoryRepo()

	if err := repo.Create(ctx, &user.User{Username: "someuser", IsAdmin: true}); err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	if err := repo.Create(ctx, &user.User{Username: "someuser"}); err == nil {
		t.Errorf("wanted error creating a duplicate user")
	}

	got, err := repo.Get(ctx, "someuser")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	if !got.IsAdmin {
		t.Errorf("admin flag got=%v want=%v", got.IsAdmin, true)
	}

	if err := repo.Delete(ctx, "someuser"); err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	if _, err := repo.Get(ctx, "someuser"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unexpected error got=%v want=%v", err, core.ErrNotFound)
	}
	if err := repo.Delete(ctx, "someuser"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unexpected error got=%v want=%v", err, core.ErrNotFound)
	}
}
