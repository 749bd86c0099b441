package content

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/k11v/sitebuild/internal/trigger"
)

// Singleton rows live at id 1, guarded by a primary key and CHECK (id = 1).
// Reads insert the default row first, so concurrent first reads never
// produce duplicates and never observe a missing row.

const siteInfoColumns = `org_name, site_name, slogan, intro_text, address, tel, email, bank_name, bank_account, bank_holder, updated_at`

func getSiteInfo(ctx context.Context, db executor) (*SiteInfo, error) {
	if _, err := db.Exec(ctx, `INSERT INTO site_info (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return nil, err
	}
	rows, _ := db.Query(ctx, `SELECT `+siteInfoColumns+` FROM site_info WHERE id = 1`)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[SiteInfo])
}

func getOfficeInfo(ctx context.Context, db executor) (*OfficeInfo, error) {
	if _, err := db.Exec(ctx, `INSERT INTO office_info (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return nil, err
	}
	rows, _ := db.Query(ctx, `SELECT office_hours, closed_days FROM office_info WHERE id = 1`)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[OfficeInfo])
}

func (s *Store) SiteInfo(ctx context.Context) (*SiteInfo, error) {
	info, err := getSiteInfo(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("content.Store: %w", err)
	}
	return info, nil
}

func (s *Store) OfficeInfo(ctx context.Context) (*OfficeInfo, error) {
	info, err := getOfficeInfo(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("content.Store: %w", err)
	}
	return info, nil
}

type SiteInfoParams struct {
	OrgName     string
	SiteName    string
	Slogan      string
	IntroText   string
	Address     string
	Tel         string
	Email       string
	BankName    string
	BankAccount string
	BankHolder  string
}

func (tx *Tx) UpdateSiteInfo(ctx context.Context, params *SiteInfoParams) (*SiteInfo, error) {
	query := `
		INSERT INTO site_info (id, org_name, site_name, slogan, intro_text, address, tel, email, bank_name, bank_account, bank_holder, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			org_name = EXCLUDED.org_name,
			site_name = EXCLUDED.site_name,
			slogan = EXCLUDED.slogan,
			intro_text = EXCLUDED.intro_text,
			address = EXCLUDED.address,
			tel = EXCLUDED.tel,
			email = EXCLUDED.email,
			bank_name = EXCLUDED.bank_name,
			bank_account = EXCLUDED.bank_account,
			bank_holder = EXCLUDED.bank_holder,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + siteInfoColumns
	rows, _ := tx.tx.Query(ctx, query,
		params.OrgName, params.SiteName, params.Slogan, params.IntroText, params.Address,
		params.Tel, params.Email, params.BankName, params.BankAccount, params.BankHolder,
	)
	info, err := collectOne[SiteInfo](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntitySiteInfo, trigger.OperationUpdated)
	return info, nil
}

type OfficeInfoParams struct {
	OfficeHours string
	ClosedDays  string
}

func (tx *Tx) UpdateOfficeInfo(ctx context.Context, params *OfficeInfoParams) (*OfficeInfo, error) {
	query := `
		INSERT INTO office_info (id, office_hours, closed_days)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			office_hours = EXCLUDED.office_hours,
			closed_days = EXCLUDED.closed_days
		RETURNING office_hours, closed_days
	`
	rows, _ := tx.tx.Query(ctx, query, params.OfficeHours, params.ClosedDays)
	info, err := collectOne[OfficeInfo](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityOfficeInfo, trigger.OperationUpdated)
	return info, nil
}
