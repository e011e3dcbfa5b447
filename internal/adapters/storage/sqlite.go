package storage

// sqlite.go — arena persistence on SQLite (pure Go driver, no CGo).
//
// Write discipline mirrors the record semantics: agents and competitions
// take in-place updates, submissions and scores are write-once with UNIQUE
// guards, and ledger_events is strictly append-only — there is no UPDATE or
// DELETE statement touching it anywhere in this file.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emarden/agentarena/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    persona     TEXT NOT NULL DEFAULT '',
    active      INTEGER NOT NULL DEFAULT 1,
    trust_score REAL NOT NULL DEFAULT 0.5,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS competitions (
    id           TEXT PRIMARY KEY,
    slug         TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '',
    market       TEXT NOT NULL,
    scoring      TEXT NOT NULL,
    status       TEXT NOT NULL,
    start_time   DATETIME NOT NULL,
    lock_time    DATETIME NOT NULL,
    settle_time  DATETIME NOT NULL,
    fee_rate     REAL NOT NULL DEFAULT 0,
    base_payout  REAL NOT NULL DEFAULT 0,
    outcome      TEXT NOT NULL DEFAULT '',
    duel_agent_a TEXT NOT NULL DEFAULT '',
    duel_agent_b TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS submissions (
    id             TEXT PRIMARY KEY,
    competition_id TEXT NOT NULL,
    agent_id       TEXT NOT NULL,
    action         TEXT NOT NULL,
    stake          REAL NOT NULL DEFAULT 0,
    confidence     REAL NOT NULL DEFAULT 0,
    submitted_at   DATETIME NOT NULL,
    UNIQUE(competition_id, agent_id)
);

CREATE TABLE IF NOT EXISTS scores (
    id             TEXT PRIMARY KEY,
    competition_id TEXT NOT NULL,
    agent_id       TEXT NOT NULL,
    value          REAL NOT NULL DEFAULT 0,
    pnl            REAL NOT NULL DEFAULT 0,
    fee            REAL NOT NULL DEFAULT 0,
    action         TEXT NOT NULL DEFAULT '',
    confidence     REAL NOT NULL DEFAULT 0,
    outcome        TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL,
    UNIQUE(competition_id, agent_id)
);

-- Append-only. Events survive agent deactivation for audit.
CREATE TABLE IF NOT EXISTS ledger_events (
    id             TEXT PRIMARY KEY,
    agent_id       TEXT NOT NULL,
    competition_id TEXT NOT NULL DEFAULT '',
    event_type     TEXT NOT NULL,
    amount         REAL NOT NULL,
    balance_after  REAL NOT NULL,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS duel_results (
    id               TEXT PRIMARY KEY,
    competition_id   TEXT NOT NULL,
    winner_id        TEXT NOT NULL,
    loser_id         TEXT NOT NULL,
    pnl_differential REAL NOT NULL,
    bonus            REAL NOT NULL,
    forfeit          INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    agent_id       TEXT NOT NULL,
    competition_id TEXT NOT NULL,
    cash           REAL NOT NULL,
    positions      TEXT NOT NULL DEFAULT '{}',
    equity         REAL NOT NULL,
    updated_at     DATETIME NOT NULL,
    PRIMARY KEY (agent_id, competition_id)
);

CREATE INDEX IF NOT EXISTS idx_comp_status   ON competitions(status);
CREATE INDEX IF NOT EXISTS idx_comp_start    ON competitions(start_time DESC);
CREATE INDEX IF NOT EXISTS idx_sub_comp      ON submissions(competition_id);
CREATE INDEX IF NOT EXISTS idx_score_comp    ON scores(competition_id);
CREATE INDEX IF NOT EXISTS idx_ledger_agent  ON ledger_events(agent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_ledger_type   ON ledger_events(agent_id, event_type);
`

// SQLiteStorage implements ports.Storage, ports.LedgerStore and
// ports.AccountStore on a single SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection cleanly.
func (s *SQLiteStorage) Close() error { return s.db.Close() }

// --- Agents ---

func (s *SQLiteStorage) CreateAgent(ctx context.Context, a domain.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, name, persona, active, trust_score, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Persona, boolInt(a.Active), a.TrustScore, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.CreateAgent: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetAgent(ctx context.Context, id string) (domain.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, persona, active, trust_score, created_at FROM agents WHERE id = ?`, id)
	var (
		a      domain.Agent
		active int
	)
	err := row.Scan(&a.ID, &a.Name, &a.Persona, &active, &a.TrustScore, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Agent{}, fmt.Errorf("storage.GetAgent: %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Agent{}, fmt.Errorf("storage.GetAgent: %w", err)
	}
	a.Active = active != 0
	return a, nil
}

func (s *SQLiteStorage) ListAgents(ctx context.Context, activeOnly bool) ([]domain.Agent, error) {
	query := `SELECT id, name, persona, active, trust_score, created_at FROM agents ORDER BY created_at`
	if activeOnly {
		query = `SELECT id, name, persona, active, trust_score, created_at FROM agents WHERE active = 1 ORDER BY created_at`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage.ListAgents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var (
			a      domain.Agent
			active int
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Persona, &active, &a.TrustScore, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.ListAgents: scan: %w", err)
		}
		a.Active = active != 0
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *SQLiteStorage) UpdateAgentTrust(ctx context.Context, id string, score float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET trust_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("storage.UpdateAgentTrust: %w", err)
	}
	return requireRow(res, "storage.UpdateAgentTrust", id)
}

func (s *SQLiteStorage) DeactivateAgent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage.DeactivateAgent: %w", err)
	}
	return requireRow(res, "storage.DeactivateAgent", id)
}

// --- Competitions ---

func (s *SQLiteStorage) CreateCompetition(ctx context.Context, c domain.Competition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitions
			(id, slug, title, market, scoring, status, start_time, lock_time, settle_time,
			 fee_rate, base_payout, outcome, duel_agent_a, duel_agent_b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Slug, c.Title, c.Market, string(c.Scoring), string(c.Status),
		c.StartTime.UTC(), c.LockTime.UTC(), c.SettleTime.UTC(),
		c.FeeRate, c.BasePayout, c.Outcome, c.DuelAgentA, c.DuelAgentB)
	if err != nil {
		return fmt.Errorf("storage.CreateCompetition: %w", err)
	}
	return nil
}

const competitionColumns = `id, slug, title, market, scoring, status, start_time, lock_time,
	settle_time, fee_rate, base_payout, outcome, duel_agent_a, duel_agent_b`

func scanCompetition(row interface{ Scan(...any) error }) (domain.Competition, error) {
	var (
		c               domain.Competition
		scoring, status string
	)
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Market, &scoring, &status,
		&c.StartTime, &c.LockTime, &c.SettleTime,
		&c.FeeRate, &c.BasePayout, &c.Outcome, &c.DuelAgentA, &c.DuelAgentB)
	if err != nil {
		return domain.Competition{}, err
	}
	c.Scoring = domain.ScoringMode(scoring)
	c.Status = domain.Status(status)
	return c, nil
}

func (s *SQLiteStorage) GetCompetition(ctx context.Context, id string) (domain.Competition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+competitionColumns+` FROM competitions WHERE id = ?`, id)
	c, err := scanCompetition(row)
	if err == sql.ErrNoRows {
		return domain.Competition{}, fmt.Errorf("storage.GetCompetition: %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("storage.GetCompetition: %w", err)
	}
	return c, nil
}

func (s *SQLiteStorage) ListCompetitionsByStatus(ctx context.Context, statuses ...domain.Status) ([]domain.Competition, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+competitionColumns+` FROM competitions WHERE status IN (`+placeholders+`) ORDER BY start_time`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListCompetitionsByStatus: %w", err)
	}
	defer rows.Close()

	var comps []domain.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListCompetitionsByStatus: scan: %w", err)
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (s *SQLiteStorage) LatestStartTime(ctx context.Context) (time.Time, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT start_time FROM competitions ORDER BY start_time DESC LIMIT 1`)
	var t time.Time
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("storage.LatestStartTime: %w", err)
	}
	return t, true, nil
}

// TransitionCompetition flips the status in one guarded UPDATE: the write
// only lands when the stored status still matches `from`, which makes
// concurrent or repeated transitions safe.
func (s *SQLiteStorage) TransitionCompetition(ctx context.Context, id string, from, to domain.Status) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("storage.TransitionCompetition: %s→%s: %w", from, to, domain.ErrInvalidTransition)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitions SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("storage.TransitionCompetition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.TransitionCompetition: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage.TransitionCompetition: %s not in %s: %w", id, from, domain.ErrInvalidTransition)
	}
	return nil
}

func (s *SQLiteStorage) SetCompetitionOutcome(ctx context.Context, id, outcome string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE competitions SET outcome = ? WHERE id = ?`, outcome, id)
	if err != nil {
		return fmt.Errorf("storage.SetCompetitionOutcome: %w", err)
	}
	return requireRow(res, "storage.SetCompetitionOutcome", id)
}

// --- Submissions ---

func (s *SQLiteStorage) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, competition_id, agent_id, action, stake, confidence, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.CompetitionID, sub.AgentID, string(sub.Action), sub.Stake, sub.Confidence, sub.SubmittedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storage.SaveSubmission: agent %s in %s: %w",
				sub.AgentID, sub.CompetitionID, domain.ErrDuplicateSubmission)
		}
		return fmt.Errorf("storage.SaveSubmission: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetSubmissions(ctx context.Context, competitionID string) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition_id, agent_id, action, stake, confidence, submitted_at
		FROM submissions WHERE competition_id = ? ORDER BY submitted_at`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSubmissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var (
			sub    domain.Submission
			action string
		)
		if err := rows.Scan(&sub.ID, &sub.CompetitionID, &sub.AgentID, &action, &sub.Stake, &sub.Confidence, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("storage.GetSubmissions: scan: %w", err)
		}
		sub.Action = domain.Action(action)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// --- Scores ---

func (s *SQLiteStorage) SaveScore(ctx context.Context, sc domain.Score) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (id, competition_id, agent_id, value, pnl, fee, action, confidence, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.CompetitionID, sc.AgentID, sc.Value, sc.PnL, sc.Fee,
		string(sc.Action), sc.Confidence, sc.Outcome, sc.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storage.SaveScore: agent %s in %s already scored: %w",
				sc.AgentID, sc.CompetitionID, domain.ErrDuplicateSubmission)
		}
		return fmt.Errorf("storage.SaveScore: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetScores(ctx context.Context, competitionID string) ([]domain.Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition_id, agent_id, value, pnl, fee, action, confidence, outcome, created_at
		FROM scores WHERE competition_id = ? ORDER BY value DESC`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetScores: %w", err)
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		var (
			sc     domain.Score
			action string
		)
		if err := rows.Scan(&sc.ID, &sc.CompetitionID, &sc.AgentID, &sc.Value, &sc.PnL, &sc.Fee,
			&action, &sc.Confidence, &sc.Outcome, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.GetScores: scan: %w", err)
		}
		sc.Action = domain.Action(action)
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// --- Duels ---

func (s *SQLiteStorage) SaveDuelResult(ctx context.Context, d domain.DuelResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO duel_results (id, competition_id, winner_id, loser_id, pnl_differential, bonus, forfeit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CompetitionID, d.WinnerID, d.LoserID, d.PnLDifferential, d.Bonus, boolInt(d.Forfeit), d.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.SaveDuelResult: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDuelResult(ctx context.Context, competitionID string) (domain.DuelResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, competition_id, winner_id, loser_id, pnl_differential, bonus, forfeit, created_at
		FROM duel_results WHERE competition_id = ?`, competitionID)

	var (
		d       domain.DuelResult
		forfeit int
	)
	err := row.Scan(&d.ID, &d.CompetitionID, &d.WinnerID, &d.LoserID, &d.PnLDifferential, &d.Bonus, &forfeit, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.DuelResult{}, false, nil
	}
	if err != nil {
		return domain.DuelResult{}, false, fmt.Errorf("storage.GetDuelResult: %w", err)
	}
	d.Forfeit = forfeit != 0
	return d, true, nil
}

// --- Ledger (append-only) ---

func (s *SQLiteStorage) AppendLedgerEvent(ctx context.Context, e domain.LedgerEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_events (id, agent_id, competition_id, event_type, amount, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AgentID, e.CompetitionID, string(e.Type), e.Amount, e.BalanceAfter, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.AppendLedgerEvent: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LastLedgerEvent(ctx context.Context, agentID string) (domain.LedgerEvent, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, competition_id, event_type, amount, balance_after, created_at
		FROM ledger_events WHERE agent_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, agentID)
	e, err := scanLedgerEvent(row)
	if err == sql.ErrNoRows {
		return domain.LedgerEvent{}, false, nil
	}
	if err != nil {
		return domain.LedgerEvent{}, false, fmt.Errorf("storage.LastLedgerEvent: %w", err)
	}
	return e, true, nil
}

func (s *SQLiteStorage) SumLedgerAmounts(ctx context.Context, agentID string, eventType domain.EventType) (float64, error) {
	var (
		total float64
		err   error
	)
	if eventType == "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM ledger_events WHERE agent_id = ?`, agentID).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM ledger_events WHERE agent_id = ? AND event_type = ?`,
			agentID, string(eventType)).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("storage.SumLedgerAmounts: %w", err)
	}
	return total, nil
}

func (s *SQLiteStorage) SettleAmountsSince(ctx context.Context, agentID string, since time.Time) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM ledger_events
		WHERE agent_id = ? AND event_type = ? AND created_at >= ?
		ORDER BY created_at, rowid`, agentID, string(domain.EventSettle), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.SettleAmountsSince: %w", err)
	}
	defer rows.Close()

	var amounts []float64
	for rows.Next() {
		var a float64
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("storage.SettleAmountsSince: scan: %w", err)
		}
		amounts = append(amounts, a)
	}
	return amounts, rows.Err()
}

func (s *SQLiteStorage) LedgerEvents(ctx context.Context, agentID string) ([]domain.LedgerEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, competition_id, event_type, amount, balance_after, created_at
		FROM ledger_events WHERE agent_id = ? ORDER BY created_at, rowid`, agentID)
	if err != nil {
		return nil, fmt.Errorf("storage.LedgerEvents: %w", err)
	}
	defer rows.Close()

	var events []domain.LedgerEvent
	for rows.Next() {
		e, err := scanLedgerEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.LedgerEvents: scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanLedgerEvent(row interface{ Scan(...any) error }) (domain.LedgerEvent, error) {
	var (
		e   domain.LedgerEvent
		typ string
	)
	err := row.Scan(&e.ID, &e.AgentID, &e.CompetitionID, &typ, &e.Amount, &e.BalanceAfter, &e.CreatedAt)
	if err != nil {
		return domain.LedgerEvent{}, err
	}
	e.Type = domain.EventType(typ)
	return e, nil
}

// --- Accounts ---

func (s *SQLiteStorage) SaveAccount(ctx context.Context, a domain.Account) error {
	positions, err := json.Marshal(a.Positions)
	if err != nil {
		return fmt.Errorf("storage.SaveAccount: marshal positions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (agent_id, competition_id, cash, positions, equity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, competition_id) DO UPDATE SET
			cash = excluded.cash,
			positions = excluded.positions,
			equity = excluded.equity,
			updated_at = excluded.updated_at`,
		a.AgentID, a.CompetitionID, a.Cash, string(positions), a.Equity, a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.SaveAccount: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetAccount(ctx context.Context, agentID, competitionID string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, competition_id, cash, positions, equity, updated_at
		FROM accounts WHERE agent_id = ? AND competition_id = ?`, agentID, competitionID)
	var (
		a         domain.Account
		positions string
	)
	err := row.Scan(&a.AgentID, &a.CompetitionID, &a.Cash, &positions, &a.Equity, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("storage.GetAccount: %s/%s: %w", agentID, competitionID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("storage.GetAccount: %w", err)
	}
	if err := json.Unmarshal([]byte(positions), &a.Positions); err != nil {
		return domain.Account{}, fmt.Errorf("storage.GetAccount: unmarshal positions: %w", err)
	}
	return a, nil
}

// --- helpers ---

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
