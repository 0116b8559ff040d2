package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bighelpmob/missionhub/internal/database"
	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/missions"
)

const dateLayout = "2006-01-02"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// --- Users ---

const userColumns = `u.id, u.name, u.email, u.phone, u.date_of_birth, u.admin`

func scanUser(row rowScanner) (missions.User, error) {
	var (
		u     missions.User
		dob   sql.NullString
		admin int
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &dob, &admin); err != nil {
		return u, err
	}
	if dob.Valid && dob.String != "" {
		if t, err := time.Parse(dateLayout, dob.String); err == nil {
			u.DateOfBirth = &t
		}
	}
	u.Admin = admin == 1
	return u, nil
}

func dobValue(u *missions.User) any {
	if u.DateOfBirth == nil {
		return nil
	}
	return u.DateOfBirth.UTC().Format(dateLayout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateUser inserts u and sets its ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *missions.User) error {
	return s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, phone, date_of_birth, admin)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, u.Name, u.Email, u.Phone, dobValue(u), boolInt(u.Admin)).Scan(&u.ID)
}

func (s *SQLiteStore) user(ctx context.Context, id int64) (*missions.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var app missions.CaptainApplication
	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, body, created_at FROM captain_applications WHERE user_id = ?
	`, id).Scan(&app.ID, &app.UserID, &app.Body, &createdAt)
	switch {
	case err == nil:
		app.CreatedAt = parseTime(createdAt)
		u.CaptainApplication = &app
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	return &u, nil
}

// --- Audience ---

// Users implements email.Audience.
func (s *SQLiteStore) Users(ctx context.Context, scope email.ScopeType, f missions.Filter) ([]missions.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.id`
	var args []any
	if scope == email.ScopeFilteredParticipations {
		where, wargs := filterClause(f)
		query = `
			SELECT ` + userColumns + ` FROM users u
			WHERE u.id IN (
				SELECT mp.user_id
				FROM mission_participations mp
				LEFT JOIN roles r ON r.id = mp.role_id
				WHERE ` + where + `
			)
			ORDER BY u.id`
		args = wargs
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []missions.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ParticipationFor implements email.Audience.
func (s *SQLiteStore) ParticipationFor(ctx context.Context, userID, missionID int64) (*missions.Participation, error) {
	p, err := scanParticipation(s.db.QueryRowContext(ctx,
		participationSelect+` WHERE mp.user_id = ? AND mp.mission_id = ?`, userID, missionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// filterClause renders f as a WHERE expression over mp (participations)
// and r (roles). Dimensions are ANDed; values within one are ORed.
func filterClause(f missions.Filter) (string, []any) {
	conds := []string{"1 = 1"}
	var args []any
	if f.MissionID != 0 {
		conds = append(conds, "mp.mission_id = ?")
		args = append(args, f.MissionID)
	}
	if f.Role != "" {
		conds = append(conds, "r.name = ?")
		args = append(args, f.Role)
	}
	if len(f.States) > 0 {
		conds = append(conds, "mp.state IN ("+placeholders(len(f.States))+")")
		for _, st := range f.States {
			args = append(args, st)
		}
	}
	if len(f.Pickups) > 0 {
		conds = append(conds, "mp.pickup_id IN ("+placeholders(len(f.Pickups))+")")
		for _, id := range f.Pickups {
			args = append(args, id)
		}
	}
	return strings.Join(conds, " AND "), args
}

func visibilityClause(vis missions.Visibility) (string, []any) {
	if vis.All {
		return "1 = 1", nil
	}
	var args []any
	for _, st := range vis.States {
		args = append(args, string(st))
	}
	cond := "mp.state IN (" + placeholders(len(vis.States)) + ")"
	if len(vis.States) == 0 {
		cond = "0 = 1"
	}
	if vis.OwnerUserID != 0 {
		cond = "(" + cond + " OR mp.user_id = ?)"
		args = append(args, vis.OwnerUserID)
	}
	return cond, args
}

// --- Participations ---

const participationSelect = `
	SELECT mp.id, mp.user_id, mp.mission_id, mp.role_id, mp.pickup_id, mp.state,
	       mp.comment, mp.partaking_with_friends, mp.answers, mp.created_at, mp.updated_at,
	       ` + userColumns + `,
	       r.name, pk.name, pk.address
	FROM mission_participations mp
	JOIN users u ON u.id = mp.user_id
	LEFT JOIN roles r ON r.id = mp.role_id
	LEFT JOIN pickups pk ON pk.id = mp.pickup_id`

func scanParticipation(row rowScanner) (*missions.Participation, error) {
	var (
		p                    missions.Participation
		roleID, pickupID     sql.NullInt64
		state, answers       string
		createdAt, updatedAt string
		friends              int
		u                    missions.User
		dob                  sql.NullString
		admin                int
		roleName             sql.NullString
		pickupName, pickAddr sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.MissionID, &roleID, &pickupID, &state,
		&p.Comment, &friends, &answers, &createdAt, &updatedAt,
		&u.ID, &u.Name, &u.Email, &u.Phone, &dob, &admin,
		&roleName, &pickupName, &pickAddr,
	)
	if err != nil {
		return nil, err
	}

	p.State = missions.State(state)
	p.PartakingWithFriends = friends == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	raw := map[string]any{}
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &raw); err != nil {
			return nil, fmt.Errorf("decoding answers of participation %d: %w", p.ID, err)
		}
	}
	p.RawAnswers = raw

	if dob.Valid && dob.String != "" {
		if t, err := time.Parse(dateLayout, dob.String); err == nil {
			u.DateOfBirth = &t
		}
	}
	u.Admin = admin == 1
	p.User = &u

	if roleID.Valid {
		id := roleID.Int64
		p.RoleID = &id
		p.Role = &missions.Role{ID: id, Name: roleName.String}
	}
	if pickupID.Valid {
		id := pickupID.Int64
		p.PickupID = &id
		p.Pickup = &missions.Pickup{ID: id, MissionID: p.MissionID, Name: pickupName.String, Address: pickAddr.String}
	}
	return &p, nil
}

func (s *SQLiteStore) ListParticipations(ctx context.Context, vis missions.Visibility, f missions.Filter) ([]*missions.Participation, error) {
	visWhere, args := visibilityClause(vis)
	fWhere, fargs := filterClause(f)
	args = append(args, fargs...)

	rows, err := s.db.QueryContext(ctx,
		participationSelect+` WHERE `+visWhere+` AND `+fWhere+` ORDER BY mp.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*missions.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Participation loads one participation with its user, captain
// application, and mission questions.
func (s *SQLiteStore) Participation(ctx context.Context, id int64) (*missions.Participation, error) {
	p, err := scanParticipation(s.db.QueryRowContext(ctx, participationSelect+` WHERE mp.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u, err := s.user(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	p.User = u

	m, err := s.Mission(ctx, p.MissionID)
	if err != nil {
		return nil, fmt.Errorf("loading mission: %w", err)
	}
	p.Mission = m
	return p, nil
}

// NewParticipation builds an unsaved participation for a user and mission.
func (s *SQLiteStore) NewParticipation(ctx context.Context, userID, missionID int64) (*missions.Participation, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	m, err := s.Mission(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("loading mission: %w", err)
	}
	return missions.NewParticipation(u, m), nil
}

// SaveParticipation implements missions.Repository. The user, captain
// application, and participation are written in one transaction.
func (s *SQLiteStore) SaveParticipation(ctx context.Context, p *missions.Participation) error {
	answers, err := json.Marshal(p.Answers().Raw())
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if u := p.User; u != nil && u.ID != 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE users SET name = ?, email = ?, phone = ?, date_of_birth = ? WHERE id = ?
			`, u.Name, u.Email, u.Phone, dobValue(u), u.ID); err != nil {
				return fmt.Errorf("updating user: %w", err)
			}
			if app := u.CaptainApplication; app != nil {
				var createdAt string
				err := tx.QueryRowContext(ctx, `
					INSERT INTO captain_applications (user_id, body) VALUES (?, ?)
					ON CONFLICT (user_id) DO UPDATE SET body = excluded.body
					RETURNING id, created_at
				`, u.ID, app.Body).Scan(&app.ID, &createdAt)
				if err != nil {
					return fmt.Errorf("saving captain application: %w", err)
				}
				app.UserID = u.ID
				app.CreatedAt = parseTime(createdAt)
			}
		}

		var createdAt, updatedAt string
		if p.NewRecord() {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO mission_participations
					(user_id, mission_id, role_id, pickup_id, state, comment, partaking_with_friends, answers)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id, created_at, updated_at
			`, p.UserID, p.MissionID, p.RoleID, p.PickupID, string(p.State), p.Comment,
				boolInt(p.PartakingWithFriends), string(answers),
			).Scan(&p.ID, &createdAt, &updatedAt)
			if err != nil {
				return fmt.Errorf("inserting participation: %w", err)
			}
			p.CreatedAt = parseTime(createdAt)
		} else {
			err := tx.QueryRowContext(ctx, `
				UPDATE mission_participations
				SET role_id = ?, pickup_id = ?, state = ?, comment = ?, partaking_with_friends = ?,
				    answers = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
				WHERE id = ?
				RETURNING updated_at
			`, p.RoleID, p.PickupID, string(p.State), p.Comment,
				boolInt(p.PartakingWithFriends), string(answers), p.ID,
			).Scan(&updatedAt)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("updating participation: %w", err)
			}
		}
		p.UpdatedAt = parseTime(updatedAt)
		return nil
	})
}

// PickupByID implements missions.Repository.
func (s *SQLiteStore) PickupByID(ctx context.Context, missionID, pickupID int64) (*missions.Pickup, error) {
	var pk missions.Pickup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mission_id, name, address FROM pickups WHERE id = ? AND mission_id = ?
	`, pickupID, missionID).Scan(&pk.ID, &pk.MissionID, &pk.Name, &pk.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pk, nil
}

// --- Missions ---

func (s *SQLiteStore) ListMissions(ctx context.Context) ([]missions.Mission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, age_limits FROM missions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []missions.Mission
	for rows.Next() {
		var m missions.Mission
		var limits string
		if err := rows.Scan(&m.ID, &m.Name, &limits); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(limits), &m.AgeLimits); err != nil {
			return nil, fmt.Errorf("decoding age limits of mission %d: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Mission loads a mission with its questions in display order.
func (s *SQLiteStore) Mission(ctx context.Context, id int64) (*missions.Mission, error) {
	var m missions.Mission
	var limits string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, age_limits FROM missions WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &limits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(limits), &m.AgeLimits); err != nil {
		return nil, fmt.Errorf("decoding age limits: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mission_id, text, kind, required, choices, position
		FROM questions WHERE mission_id = ?
		ORDER BY position, id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q missions.Question
		var kind, choices string
		var required int
		if err := rows.Scan(&q.ID, &q.MissionID, &q.Text, &kind, &required, &choices, &q.Position); err != nil {
			return nil, err
		}
		q.Kind = missions.QuestionKind(kind)
		q.Required = required == 1
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, fmt.Errorf("decoding choices of question %d: %w", q.ID, err)
		}
		m.Questions = append(m.Questions, q)
	}
	return &m, rows.Err()
}

// CreateMission inserts m with its questions and pickups, setting their IDs.
func (s *SQLiteStore) CreateMission(ctx context.Context, m *missions.Mission, pickups []missions.Pickup) ([]missions.Pickup, error) {
	limits, err := json.Marshal(m.AgeLimits)
	if err != nil {
		return nil, err
	}
	if m.AgeLimits == nil {
		limits = []byte("{}")
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO missions (name, age_limits) VALUES (?, ?) RETURNING id`, m.Name, string(limits),
		).Scan(&m.ID); err != nil {
			return fmt.Errorf("inserting mission: %w", err)
		}
		for i := range m.Questions {
			q := &m.Questions[i]
			q.MissionID = m.ID
			choices, err := json.Marshal(q.Choices)
			if err != nil {
				return err
			}
			if q.Choices == nil {
				choices = []byte("[]")
			}
			if q.Kind == "" {
				q.Kind = missions.QuestionString
			}
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO questions (mission_id, text, kind, required, choices, position)
				VALUES (?, ?, ?, ?, ?, ?)
				RETURNING id
			`, m.ID, q.Text, string(q.Kind), boolInt(q.Required), string(choices), q.Position).Scan(&q.ID); err != nil {
				return fmt.Errorf("inserting question: %w", err)
			}
		}
		for i := range pickups {
			pk := &pickups[i]
			pk.MissionID = m.ID
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO pickups (mission_id, name, address) VALUES (?, ?, ?) RETURNING id`,
				m.ID, pk.Name, pk.Address,
			).Scan(&pk.ID); err != nil {
				return fmt.Errorf("inserting pickup: %w", err)
			}
		}
		return nil
	})
	return pickups, err
}

func (s *SQLiteStore) Pickups(ctx context.Context, missionID int64) ([]missions.Pickup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mission_id, name, address FROM pickups WHERE mission_id = ? ORDER BY id
	`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []missions.Pickup
	for rows.Next() {
		var pk missions.Pickup
		if err := rows.Scan(&pk.ID, &pk.MissionID, &pk.Name, &pk.Address); err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}

// Roles returns the publicly assignable roles in display order.
func (s *SQLiteStore) Roles(ctx context.Context) (missions.RoleList, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out missions.RoleList
	for rows.Next() {
		var r missions.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Notifications ---

func (s *SQLiteStore) RecordNotification(ctx context.Context, kind missions.NotificationKind, p *missions.Participation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (kind, user_id, participation_id) VALUES (?, ?, ?)
	`, string(kind), p.UserID, p.ID)
	return err
}

// ListNotifications returns the newest notifications, for one user when
// userID is set.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID int64) ([]Notification, error) {
	query := `
		SELECT n.id, n.kind, n.user_id, n.participation_id, mp.mission_id, n.created_at
		FROM notifications n
		JOIN mission_participations mp ON mp.id = n.participation_id`
	var args []any
	if userID != 0 {
		query += ` WHERE n.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY n.id DESC LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.UserID, &n.ParticipationID, &n.MissionID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
