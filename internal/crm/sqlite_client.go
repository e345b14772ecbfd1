package crm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly
)

// SQLiteClient is a self-contained local board for offline use. Unlike the
// remote backend there is no server process; the client owns the database.
type SQLiteClient struct {
	dsn string
	now func() time.Time
}

// SQLiteOption configures a SQLiteClient.
type SQLiteOption func(*SQLiteClient)

// WithClock overrides timestamp generation, for tests.
func WithClock(now func() time.Time) SQLiteOption {
	return func(c *SQLiteClient) {
		c.now = now
	}
}

// NewSQLiteClient constructs a client backed by the database at dbPath.
// The schema is created on first use.
func NewSQLiteClient(dbPath string, opts ...SQLiteOption) (*SQLiteClient, error) {
	trimmed := strings.TrimSpace(dbPath)
	if trimmed == "" {
		return nil, fmt.Errorf("sqlite client requires a database path")
	}
	c := &SQLiteClient{
		dsn: buildSQLiteDSN(trimmed),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// buildSQLiteDSN creates a read-write WAL DSN for the given path.
func buildSQLiteDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "3000")
	u.RawQuery = q.Encode()
	return u.String()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS deals (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    value REAL NOT NULL DEFAULT 0,
    stage TEXT NOT NULL,
    contact_id TEXT NOT NULL DEFAULT '',
    contact_name TEXT NOT NULL DEFAULT '',
    owner_id TEXT NOT NULL DEFAULT '',
    owner_name TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT 'medium',
    expected_close_date TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    custom_fields TEXT NOT NULL DEFAULT '{}',
    lost_reason TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const stagesSettingKey = "pipeline_stages"

func (c *SQLiteClient) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", c.dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func (c *SQLiteClient) loadStages(ctx context.Context, db *sql.DB) ([]string, error) {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, stagesSettingKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultStageList(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	var stages []string
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, fmt.Errorf("parse stages setting: %w", err)
	}
	if len(stages) == 0 {
		return defaultStageList(), nil
	}
	return stages, nil
}

// defaultStageList mirrors the server's default pipeline. Kept local so the
// wire package stays free of domain imports.
func defaultStageList() []string {
	return []string{"New Lead", "Qualified", "Proposal", "Negotiation", "Won", "Lost"}
}

const dealColumns = `id, title, value, stage, contact_id, contact_name, owner_id, owner_name,
	description, priority, expected_close_date, tags, custom_fields, lost_reason,
	position, created_at, updated_at`

func scanDeal(row interface{ Scan(...any) error }) (Deal, error) {
	var deal Deal
	var tags, customFields string
	err := row.Scan(
		&deal.ID, &deal.Title, &deal.Value, &deal.Stage,
		&deal.ContactID, &deal.ContactName, &deal.OwnerID, &deal.OwnerName,
		&deal.Description, &deal.Priority, &deal.ExpectedCloseDate,
		&tags, &customFields, &deal.LostReason,
		&deal.Position, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return Deal{}, err
	}
	if err := json.Unmarshal([]byte(tags), &deal.Tags); err != nil {
		return Deal{}, fmt.Errorf("parse tags for %s: %w", deal.ID, err)
	}
	if err := json.Unmarshal([]byte(customFields), &deal.CustomFields); err != nil {
		return Deal{}, fmt.Errorf("parse custom fields for %s: %w", deal.ID, err)
	}
	return deal, nil
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func (c *SQLiteClient) writeDeal(ctx context.Context, db *sql.DB, deal Deal) error {
	tags := deal.Tags
	if tags == nil {
		tags = []string{}
	}
	fields := deal.CustomFields
	if fields == nil {
		fields = map[string]string{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO deals (`+dealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, value=excluded.value, stage=excluded.stage,
			contact_id=excluded.contact_id, contact_name=excluded.contact_name,
			owner_id=excluded.owner_id, owner_name=excluded.owner_name,
			description=excluded.description, priority=excluded.priority,
			expected_close_date=excluded.expected_close_date,
			tags=excluded.tags, custom_fields=excluded.custom_fields,
			lost_reason=excluded.lost_reason, position=excluded.position,
			updated_at=excluded.updated_at
	`,
		deal.ID, deal.Title, deal.Value, deal.Stage,
		deal.ContactID, deal.ContactName, deal.OwnerID, deal.OwnerName,
		deal.Description, deal.Priority, deal.ExpectedCloseDate,
		encode(tags), encode(fields), deal.LostReason,
		deal.Position, deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("write deal %s: %w", deal.ID, err)
	}
	return nil
}

func (c *SQLiteClient) getDeal(ctx context.Context, db *sql.DB, id string) (Deal, error) {
	row := db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	deal, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Deal{}, notFoundError("deal", id)
	}
	if err != nil {
		return Deal{}, fmt.Errorf("get deal %s: %w", id, err)
	}
	return deal, nil
}

// ListPipeline implements Client.
func (c *SQLiteClient) ListPipeline(ctx context.Context) (PipelineSnapshot, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return PipelineSnapshot{}, err
	}
	defer func() {
		_ = db.Close()
	}()

	stages, err := c.loadStages(ctx, db)
	if err != nil {
		return PipelineSnapshot{}, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+dealColumns+` FROM deals ORDER BY position, created_at, id`)
	if err != nil {
		return PipelineSnapshot{}, fmt.Errorf("query deals: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var deals []Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return PipelineSnapshot{}, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		return PipelineSnapshot{}, err
	}

	return PipelineSnapshot{
		Stages:  stages,
		Deals:   deals,
		Summary: Summarize(stages, deals),
	}, nil
}

// CreateDeal implements Client.
func (c *SQLiteClient) CreateDeal(ctx context.Context, req CreateDealRequest) (Deal, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return Deal{}, err
	}
	defer func() {
		_ = db.Close()
	}()

	now := c.now().UTC().Format(time.RFC3339)
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	deal := Deal{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Value:             req.Value,
		Stage:             req.Stage,
		ContactID:         req.ContactID,
		ContactName:       req.ContactName,
		Description:       req.Description,
		Priority:          priority,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Tags:              req.Tags,
		CustomFields:      req.CustomFields,
		Position:          req.Position,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := c.writeDeal(ctx, db, deal); err != nil {
		return Deal{}, err
	}
	return deal, nil
}

// UpdateDeal implements Client.
func (c *SQLiteClient) UpdateDeal(ctx context.Context, id string, req UpdateDealRequest) (Deal, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return Deal{}, err
	}
	defer func() {
		_ = db.Close()
	}()

	deal, err := c.getDeal(ctx, db, id)
	if err != nil {
		return Deal{}, err
	}
	deal = req.ApplyTo(deal)
	deal.UpdatedAt = c.now().UTC().Format(time.RFC3339)
	if err := c.writeDeal(ctx, db, deal); err != nil {
		return Deal{}, err
	}
	return deal, nil
}

// MoveDeal implements Client.
func (c *SQLiteClient) MoveDeal(ctx context.Context, id, stage string, position int) (Deal, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return Deal{}, err
	}
	defer func() {
		_ = db.Close()
	}()

	deal, err := c.getDeal(ctx, db, id)
	if err != nil {
		return Deal{}, err
	}
	deal.Stage = stage
	deal.Position = position
	deal.UpdatedAt = c.now().UTC().Format(time.RFC3339)
	if err := c.writeDeal(ctx, db, deal); err != nil {
		return Deal{}, err
	}
	return deal, nil
}

// DeleteDeal implements Client.
func (c *SQLiteClient) DeleteDeal(ctx context.Context, id string) error {
	db, err := c.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	res, err := db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deal %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFoundError("deal", id)
	}
	return nil
}

// ReplaceStages implements Client.
func (c *SQLiteClient) ReplaceStages(ctx context.Context, stages []string) ([]string, error) {
	if len(stages) < 2 {
		return nil, requestError("replace stages", fmt.Errorf("pipeline must have at least 2 stages"))
	}
	db, err := c.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	cleaned := make([]string, 0, len(stages))
	for _, s := range stages {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, requestError("replace stages", fmt.Errorf("each stage must be a non-empty string"))
		}
		cleaned = append(cleaned, trimmed)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, stagesSettingKey, encode(cleaned))
	if err != nil {
		return nil, fmt.Errorf("save stages: %w", err)
	}
	return cleaned, nil
}

// LookupContactName implements Client. The local board stores the contact
// name denormalized on the deal, so resolution just replays it.
func (c *SQLiteClient) LookupContactName(ctx context.Context, contactID string) (string, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = db.Close()
	}()

	var name string
	err = db.QueryRowContext(ctx, `
		SELECT contact_name FROM deals WHERE contact_id = ? AND contact_name != '' LIMIT 1
	`, contactID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup contact %s: %w", contactID, err)
	}
	return name, nil
}

var _ Client = (*SQLiteClient)(nil)
