package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/repositories"
	registryRepo "privydocs/internal/domain/repositories/registry"
	"privydocs/internal/repository/postgres"

	"github.com/fxamacker/cbor/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// eventPayload is the CBOR-encoded detail of an audit row. Bodies are never
// stored here: the registry keeps only the latest body, in the documents table.
type eventPayload struct {
	Name         string `cbor:"1,keyasint,omitempty"`
	EncryptedKey []byte `cbor:"2,keyasint,omitempty"`
	BodyBytes    int    `cbor:"3,keyasint,omitempty"`
}

// payloadEncMode encodes audit payloads with Core Deterministic Encoding
// (RFC 8949 §4.2), so the same event always produces the same bytes.
var payloadEncMode cbor.EncMode

func init() {
	var err error
	payloadEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("journal: CBOR encoder initialization failed: " + err.Error())
	}
}

// PostgresJournal implements the Journal interface. Documents and grants are
// materialized into their own tables; every event also gets an audit row, and
// that row's seq is what makes Append idempotent.
type PostgresJournal struct {
	pool      *pgxpool.Pool
	tables    *postgres.TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewJournal creates a new Postgres journal
func NewJournal(config *postgres.RepositoryConfig, txManager repositories.TransactionManager) registryRepo.Journal {
	return &PostgresJournal{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: txManager,
		logger:    config.Logger,
	}
}

// Append persists a batch of events in one transaction
func (j *PostgresJournal) Append(ctx context.Context, events []models.Event) error {
	return j.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		applied := 0
		for _, event := range events {
			seen, err := j.eventExists(txCtx, event.Seq)
			if err != nil {
				return err
			}
			if seen {
				continue
			}
			if err := j.apply(txCtx, event); err != nil {
				return fmt.Errorf("apply event %d (%s): %w", event.Seq, event.Kind, err)
			}
			if err := j.insertEvent(txCtx, event); err != nil {
				return err
			}
			applied++
		}

		if applied < len(events) {
			j.logger.Debug("skipped already journaled events",
				"skipped", len(events)-applied,
			)
		}
		return nil
	})
}

func (j *PostgresJournal) eventExists(ctx context.Context, seq uint64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE seq = $1)`, j.tables.DocumentEvents)

	var exists bool
	executor := postgres.GetExecutor(ctx, j.pool)
	if err := executor.QueryRow(ctx, query, int64(seq)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check event %d: %w", seq, err)
	}
	return exists, nil
}

func (j *PostgresJournal) apply(ctx context.Context, event models.Event) error {
	executor := postgres.GetExecutor(ctx, j.pool)

	switch event.Kind {
	case models.EventDocumentCreated:
		query := fmt.Sprintf(`
			INSERT INTO %s (id, name, owner, encrypted_key, encrypted_body, created_at, updated_at)
			VALUES ($1, $2, $3, $4, ''::bytea, $5, $5)
		`, j.tables.Documents)
		_, err := executor.Exec(ctx, query,
			int64(event.DocumentID),
			event.Name,
			string(event.Actor),
			event.EncryptedKey[:],
			event.OccurredAt,
		)
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("document %d already journaled", event.DocumentID)
		}
		return err

	case models.EventDocumentUpdated:
		query := fmt.Sprintf(`
			UPDATE %s SET encrypted_body = $2, updated_at = $3
			WHERE id = $1
		`, j.tables.Documents)
		tag, err := executor.Exec(ctx, query,
			int64(event.DocumentID),
			[]byte(event.EncryptedBody.Clone()),
			event.OccurredAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("document %d not journaled", event.DocumentID)
		}
		return nil

	case models.EventDocumentAccessGranted:
		query := fmt.Sprintf(`
			INSERT INTO %s (document_id, principal, position)
			VALUES ($1, $2, $3)
		`, j.tables.DocumentAccess)
		_, err := executor.Exec(ctx, query,
			int64(event.DocumentID),
			string(event.Subject),
			int64(event.Seq),
		)
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %d not journaled", event.DocumentID)
		}
		return err

	case models.EventDocumentAccessRevoked:
		query := fmt.Sprintf(`
			DELETE FROM %s WHERE document_id = $1 AND principal = $2
		`, j.tables.DocumentAccess)
		tag, err := executor.Exec(ctx, query,
			int64(event.DocumentID),
			string(event.Subject),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("no access entry for %s on document %d", event.Subject, event.DocumentID)
		}
		return nil
	}

	return fmt.Errorf("unknown event kind %q", event.Kind)
}

func (j *PostgresJournal) insertEvent(ctx context.Context, event models.Event) error {
	payload, err := encodePayload(event)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (seq, kind, document_id, actor, subject, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, j.tables.DocumentEvents)

	executor := postgres.GetExecutor(ctx, j.pool)
	_, err = executor.Exec(ctx, query,
		int64(event.Seq),
		string(event.Kind),
		int64(event.DocumentID),
		string(event.Actor),
		string(event.Subject),
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert event %d: %w", event.Seq, err)
	}
	return nil
}

// Load reads documents, grants and the last sequence number from one
// repeatable-read snapshot of the database
func (j *PostgresJournal) Load(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}

	err := j.txManager.ExecSnapshotTx(ctx, func(txCtx context.Context) error {
		var err error
		if snapshot.Documents, err = j.loadDocuments(txCtx); err != nil {
			return err
		}
		if snapshot.Access, err = j.loadAccess(txCtx); err != nil {
			return err
		}

		var lastSeq int64
		query := fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s`, j.tables.DocumentEvents)
		executor := postgres.GetExecutor(txCtx, j.pool)
		if err := executor.QueryRow(txCtx, query).Scan(&lastSeq); err != nil {
			return fmt.Errorf("load last seq: %w", err)
		}
		snapshot.LastSeq = uint64(lastSeq)
		return nil
	})
	if err != nil {
		return nil, err
	}

	j.logger.Info("journal loaded",
		"documents", len(snapshot.Documents),
		"access_entries", len(snapshot.Access),
		"last_seq", snapshot.LastSeq,
	)

	return snapshot, nil
}

func (j *PostgresJournal) loadDocuments(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, name, owner, encrypted_key, encrypted_body, created_at, updated_at
		FROM %s
		ORDER BY id
	`, j.tables.Documents)

	rows, err := postgres.GetExecutor(ctx, j.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			id                 int64
			name, owner        string
			key, body          []byte
			createdAt, updated time.Time
		)
		if err := rows.Scan(&id, &name, &owner, &key, &body, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if len(key) != models.KeyHandleLength {
			return nil, fmt.Errorf("document %d has a %d byte key handle", id, len(key))
		}

		doc := models.Document{
			ID:            uint64(id),
			Name:          name,
			Owner:         models.Principal(owner),
			EncryptedBody: models.Ciphertext(body),
			CreatedAt:     createdAt,
			UpdatedAt:     updated,
		}
		copy(doc.EncryptedKey[:], key)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (j *PostgresJournal) loadAccess(ctx context.Context) ([]models.AccessEntry, error) {
	query := fmt.Sprintf(`
		SELECT document_id, principal, position
		FROM %s
		ORDER BY document_id, position
	`, j.tables.DocumentAccess)

	rows, err := postgres.GetExecutor(ctx, j.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load access entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AccessEntry
	for rows.Next() {
		var (
			documentID, position int64
			principal            string
		)
		if err := rows.Scan(&documentID, &principal, &position); err != nil {
			return nil, fmt.Errorf("scan access entry: %w", err)
		}
		entries = append(entries, models.AccessEntry{
			DocumentID: uint64(documentID),
			Principal:  models.Principal(principal),
			Position:   uint64(position),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access entries: %w", err)
	}
	return entries, nil
}

func encodePayload(event models.Event) ([]byte, error) {
	var payload eventPayload
	switch event.Kind {
	case models.EventDocumentCreated:
		payload.Name = event.Name
		payload.EncryptedKey = event.EncryptedKey[:]
	case models.EventDocumentUpdated:
		payload.BodyBytes = len(event.EncryptedBody)
	default:
		return nil, nil
	}

	data, err := payloadEncMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode event %d payload: %w", event.Seq, err)
	}
	return data, nil
}
