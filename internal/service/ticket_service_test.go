package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sst-resolve/resolve-bot/internal/database/dbtest"
	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/model"
)

func TestTicketService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create_DefaultsToOpen", func(t *testing.T) {
		svc := NewTicketService(dbtest.Open(t))
		tk := &model.Ticket{UserNumber: "+91", Category: "Hostel", Subcategory: "Mess Quality Issues"}
		require.NoError(t, svc.Create(ctx, tk))
		assert.NotZero(t, tk.ID)

		got, err := svc.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusOpen, got.Status)
		assert.Nil(t, got.Details)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		svc := NewTicketService(dbtest.Open(t))
		_, err := svc.GetByID(ctx, 42)
		assert.ErrorIs(t, err, errs.ErrTicketNotFound)
	})

	t.Run("SetDetails", func(t *testing.T) {
		svc := NewTicketService(dbtest.Open(t))
		tk := &model.Ticket{UserNumber: "+91", Category: "College", Subcategory: "Other"}
		require.NoError(t, svc.Create(ctx, tk))

		require.NoError(t, svc.SetDetails(ctx, tk.ID, `{"slack_message_ts":"1.2"}`))
		got, err := svc.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Details)
		assert.JSONEq(t, `{"slack_message_ts":"1.2"}`, *got.Details)

		assert.ErrorIs(t, svc.SetDetails(ctx, 999, "{}"), errs.ErrTicketNotFound)
	})

	t.Run("List_FiltersAndPaginates", func(t *testing.T) {
		svc := NewTicketService(dbtest.Open(t))
		for _, c := range []string{"Hostel", "Hostel", "College"} {
			require.NoError(t, svc.Create(ctx, &model.Ticket{UserNumber: "+91", Category: c, Subcategory: "Other"}))
		}

		items, total, err := svc.List(ctx, map[string]interface{}{"category = ?": "Hostel"}, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 1)

		items, total, err = svc.List(ctx, nil, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("Update", func(t *testing.T) {
		svc := NewTicketService(dbtest.Open(t))
		tk := &model.Ticket{UserNumber: "+91", Category: "Hostel", Subcategory: "Other"}
		require.NoError(t, svc.Create(ctx, tk))

		updated, err := svc.Update(ctx, tk.ID, map[string]interface{}{"status": string(model.TicketStatusClosed)})
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusClosed, updated.Status)

		_, err = svc.Update(ctx, 999, map[string]interface{}{"status": "closed"})
		assert.ErrorIs(t, err, errs.ErrTicketNotFound)
	})
}
