package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
)

// ============================================================
// Staff accounts: implements port.StaffStore
// ============================================================

const staffTable = "staff_users"

// GetStaffByUsername returns nil, nil when no such staff member exists.
func (c *Client) GetStaffByUsername(ctx context.Context, username string) (*domain.StaffUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetStaffByUsername")
	defer span.End()

	var staff *domain.StaffUser
	err := c.call(ctx, staffTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s?%s&limit=1", staffTable, eq("username", username)))
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.StaffUser](body, staffTable)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			staff = &rows[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}
