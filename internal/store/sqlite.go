package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/astrodesk/consult-platform/internal/model"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store at the given path. The
// schema is created if it doesn't exist; parent directories are created
// as needed. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS wallets (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			balance INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS wallet_transactions (
			id TEXT PRIMARY KEY,
			wallet_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (wallet_id) REFERENCES wallets(id)
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_wallet_created
			ON wallet_transactions(wallet_id, created_at);

		CREATE TABLE IF NOT EXISTS personas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			avatar TEXT,
			system_prompt TEXT NOT NULL,
			message_cost INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			full_name TEXT NOT NULL,
			date_of_birth DATETIME NOT NULL,
			place_of_birth TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_profiles_owner ON profiles(owner_id);

		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			persona_id TEXT,
			suggested_questions TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_owner
			ON conversations(owner_id, updated_at);

		CREATE TABLE IF NOT EXISTS conversation_profiles (
			conversation_id TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			PRIMARY KEY (conversation_id, profile_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			cost INTEGER NOT NULL DEFAULT 0,
			paid INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureWallet returns the owner's wallet, creating it with the welcome
// balance and a matching welcome_bonus transaction if absent. Creation
// is serialized by the UNIQUE constraint on owner_id: concurrent calls
// race on the insert inside a transaction, and the loser reads the
// winner's row.
func (s *SQLiteStore) EnsureWallet(ctx context.Context, ownerID string, welcomeBonus int64) (*model.Wallet, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	walletID := uuid.Must(uuid.NewV7()).String()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, owner_id, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO NOTHING`,
		walletID, ownerID, welcomeBonus, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("inserting wallet: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("checking insert: %w", err)
	}

	if inserted > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO wallet_transactions (id, wallet_id, amount, type, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.Must(uuid.NewV7()).String(), walletID, welcomeBonus,
			model.TransactionWelcomeBonus, "Welcome bonus", now)
		if err != nil {
			return nil, false, fmt.Errorf("inserting welcome transaction: %w", err)
		}
	}

	wallet, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE owner_id = ?`,
		ownerID))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing transaction: %w", err)
	}

	return wallet, inserted > 0, nil
}

// GetWalletByOwner retrieves a wallet by its owner.
func (s *SQLiteStore) GetWalletByOwner(ctx context.Context, ownerID string) (*model.Wallet, error) {
	return scanWallet(s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE owner_id = ?`,
		ownerID))
}

// GetWallet retrieves a wallet by ID.
func (s *SQLiteStore) GetWallet(ctx context.Context, walletID string) (*model.Wallet, error) {
	return scanWallet(s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE id = ?`,
		walletID))
}

// DebitWallet atomically decrements the balance and appends a negative
// transaction. The balance check and decrement are a single conditional
// UPDATE: two concurrent debits cannot both pass a check that only one
// can afford.
func (s *SQLiteStore) DebitWallet(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - ?, updated_at = ?
		WHERE id = ? AND balance >= ?`,
		amount, now, walletID, amount)
	if err != nil {
		return nil, fmt.Errorf("debiting wallet: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking debit: %w", err)
	}

	if updated == 0 {
		// Distinguish a missing wallet from an insufficient balance.
		wallet, err := scanWallet(tx.QueryRowContext(ctx,
			`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE id = ?`,
			walletID))
		if err != nil {
			return nil, model.ErrWalletNotFound
		}
		return nil, &model.InsufficientCreditsError{Balance: wallet.Balance, Required: amount}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, amount, type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.Must(uuid.NewV7()).String(), walletID, -amount, txType, description, now)
	if err != nil {
		return nil, fmt.Errorf("inserting debit transaction: %w", err)
	}

	wallet, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE id = ?`,
		walletID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing debit: %w", err)
	}

	return wallet, nil
}

// CreditWallet atomically increments the balance and appends a positive
// transaction.
func (s *SQLiteStore) CreditWallet(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE id = ?`,
		amount, now, walletID)
	if err != nil {
		return nil, fmt.Errorf("crediting wallet: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking credit: %w", err)
	}
	if updated == 0 {
		return nil, model.ErrWalletNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, amount, type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.Must(uuid.NewV7()).String(), walletID, amount, txType, description, now)
	if err != nil {
		return nil, fmt.Errorf("inserting credit transaction: %w", err)
	}

	wallet, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, owner_id, balance, created_at, updated_at FROM wallets WHERE id = ?`,
		walletID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing credit: %w", err)
	}

	return wallet, nil
}

// ListTransactions retrieves a wallet's transactions, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, walletID string, limit int) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet_id, amount, type, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// CreatePersona inserts a persona.
func (s *SQLiteStore) CreatePersona(ctx context.Context, persona *model.Persona) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personas (id, name, description, avatar, system_prompt, message_cost, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		persona.ID, persona.Name, persona.Description, persona.Avatar,
		persona.SystemPrompt, persona.MessageCost, persona.IsActive, persona.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting persona: %w", err)
	}
	return nil
}

// GetPersona retrieves a persona by ID.
func (s *SQLiteStore) GetPersona(ctx context.Context, id string) (*model.Persona, error) {
	var p model.Persona
	var avatar sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, avatar, system_prompt, message_cost, is_active, created_at
		FROM personas WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &avatar, &p.SystemPrompt, &p.MessageCost, &p.IsActive, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying persona: %w", err)
	}
	p.Avatar = avatar.String
	return &p, nil
}

// ListActivePersonas retrieves all active personas.
func (s *SQLiteStore) ListActivePersonas(ctx context.Context) ([]model.Persona, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, avatar, system_prompt, message_cost, is_active, created_at
		FROM personas WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying personas: %w", err)
	}
	defer rows.Close()

	var personas []model.Persona
	for rows.Next() {
		var p model.Persona
		var avatar sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &avatar, &p.SystemPrompt, &p.MessageCost, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning persona: %w", err)
		}
		p.Avatar = avatar.String
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

// CreateProfile inserts a profile.
func (s *SQLiteStore) CreateProfile(ctx context.Context, profile *model.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, owner_id, full_name, date_of_birth, place_of_birth, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.OwnerID, profile.FullName, profile.DateOfBirth,
		profile.PlaceOfBirth, profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, full_name, date_of_birth, place_of_birth, created_at
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.OwnerID, &p.FullName, &p.DateOfBirth, &p.PlaceOfBirth, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// ListProfilesByOwner retrieves an owner's profiles.
func (s *SQLiteStore) ListProfilesByOwner(ctx context.Context, ownerID string) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, full_name, date_of_birth, place_of_birth, created_at
		FROM profiles WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.FullName, &p.DateOfBirth, &p.PlaceOfBirth, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateConversation inserts a conversation and its profile links.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, owner_id, title, persona_id, suggested_questions, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		conv.ID, conv.OwnerID, conv.Title, nullString(conv.PersonaID),
		conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	for _, profileID := range conv.ProfileIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_profiles (conversation_id, profile_id) VALUES (?, ?)`,
			conv.ID, profileID)
		if err != nil {
			return fmt.Errorf("linking profile %s: %w", profileID, err)
		}
	}

	return tx.Commit()
}

// GetConversation retrieves a conversation with its profile links.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var personaID sql.NullString
	var questions sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, persona_id, suggested_questions, created_at, updated_at
		FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.OwnerID, &c.Title, &personaID, &questions, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	c.PersonaID = personaID.String
	if questions.Valid {
		if err := json.Unmarshal([]byte(questions.String), &c.SuggestedQuestions); err != nil {
			return nil, fmt.Errorf("decoding suggested questions: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT profile_id FROM conversation_profiles WHERE conversation_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying profile links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var profileID string
		if err := rows.Scan(&profileID); err != nil {
			return nil, fmt.Errorf("scanning profile link: %w", err)
		}
		c.ProfileIDs = append(c.ProfileIDs, profileID)
	}
	return &c, rows.Err()
}

// ListConversationsByOwner retrieves an owner's conversations, most
// recently updated first.
func (s *SQLiteStore) ListConversationsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Conversation, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE owner_id = ?`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting conversations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, persona_id, suggested_questions, created_at, updated_at
		FROM conversations WHERE owner_id = ?
		ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var personaID sql.NullString
		var questions sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &personaID, &questions, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning conversation: %w", err)
		}
		c.PersonaID = personaID.String
		if questions.Valid {
			_ = json.Unmarshal([]byte(questions.String), &c.SuggestedQuestions)
		}
		convs = append(convs, c)
	}
	return convs, total, rows.Err()
}

// UpdateConversationTitle updates the title.
func (s *SQLiteStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSuggestedQuestions replaces the suggested follow-up list.
func (s *SQLiteStore) UpdateSuggestedQuestions(ctx context.Context, id string, questions []string) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encoding suggested questions: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET suggested_questions = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating suggested questions: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes a conversation; messages and profile links
// cascade.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage inserts a message and bumps the conversation's
// updated_at.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, owner_id, role, content, cost, paid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.OwnerID, msg.Role, msg.Content,
		msg.Cost, msg.Paid, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	return tx.Commit()
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, owner_id, role, content, cost, paid, created_at
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.ConversationID, &m.OwnerID, &m.Role, &m.Content, &m.Cost, &m.Paid, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return &m, nil
}

// UpdateMessageContent writes the final content of a message once.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, id, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMessages retrieves a conversation's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, owner_id, role, content, cost, paid, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.OwnerID, &m.Role, &m.Content, &m.Cost, &m.Paid, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanWallet(row *sql.Row) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning wallet: %w", err)
	}
	return &w, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
