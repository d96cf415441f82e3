package services

import (
	"testing"

	"haushalt/internal/dates"
	"haushalt/internal/models"
	"haushalt/internal/testutil"
)

func TestTagCRUD(t *testing.T) {
	t.Run("create_and_list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTag(user.ID, "vacation")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTag(user.ID, "business")
		testutil.AssertNoError(t, err)

		tags, err := svc.GetUserTags(user.ID)
		testutil.AssertNoError(t, err)
		if len(tags) != 2 {
			t.Fatalf("expected 2 tags, got %d", len(tags))
		}
		if tags[0].Name != "business" {
			t.Errorf("expected name order, got %q first", tags[0].Name)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTag(user.ID, "vacation")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTag(user.ID, "vacation")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTag(user.ID, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		tag, err := svc.CreateTag(user.ID, "vacation")
		testutil.AssertNoError(t, err)

		renamed, err := svc.UpdateTag(user.ID, tag.ID, "holidays")
		testutil.AssertNoError(t, err)
		if renamed.Name != "holidays" {
			t.Errorf("expected renamed tag, got %q", renamed.Name)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateTag(user.ID, "00000000-0000-0000-0000-000000000000", "x")
		testutil.AssertAppError(t, err, "TAG_NOT_FOUND")
		err = svc.DeleteTag(user.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "TAG_NOT_FOUND")
	})
}

// Deleting a tag detaches it from transactions instead of failing or
// deleting them.
func TestDeleteTagDetachesAssociations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	tagSvc := NewTagService(db)
	txSvc, _, _ := newLedger(db)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	tag, err := tagSvc.CreateTag(user.ID, "vacation")
	testutil.AssertNoError(t, err)

	tagged, err := txSvc.CreateTransaction(user.ID, TransactionInput{
		AccountID: &account.ID,
		Type:      models.TransactionTypeExpense,
		Amount:    100,
		Date:      dates.MustParse("2024-01-10"),
		TagIDs:    []string{tag.ID},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, tagSvc.DeleteTag(user.ID, tag.ID))

	reloaded, err := txSvc.GetTransactionByID(user.ID, tagged.ID)
	testutil.AssertNoError(t, err)
	if len(reloaded.Tags) != 0 {
		t.Errorf("expected tag detached from transaction, got %d tags", len(reloaded.Tags))
	}
}
