package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voteaudit/internal/domain"
	"voteaudit/internal/usecase"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const historySeqRow = 1

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append assigns the next sequence number and links the record to the
// current head of the chain inside one transaction.
func (r *HistoryRepository) Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error) {
	if r.db == nil {
		return domain.VerificationRecord{}, errDBUnavailable
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Microsecond)
	if record.PayloadHash == "" {
		return domain.VerificationRecord{}, errors.New("payload_hash is required")
	}
	if record.Reasons == nil {
		record.Reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(record.Reasons)
	if err != nil {
		return domain.VerificationRecord{}, err
	}

	var out domain.VerificationRecord
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, prevHash, err := nextHistorySeq(ctx, tx)
		if err != nil {
			return err
		}
		record.Seq = seq
		record.PrevRecordHash = prevHash
		recordHash, err := usecase.ComputeRecordHash(record)
		if err != nil {
			return err
		}
		record.RecordHash = recordHash

		model := recordModelFromDomain(record, reasonsJSON)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		out = record
		return nil
	})
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	return out, nil
}

func (r *HistoryRepository) ListByPoll(ctx context.Context, pollID int) ([]domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []VerificationRecordModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("seq ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return recordsFromModels(models)
}

func (r *HistoryRepository) ListAll(ctx context.Context) ([]domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []VerificationRecordModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return recordsFromModels(models)
}

func nextHistorySeq(ctx context.Context, tx *gorm.DB) (int64, string, error) {
	if err := tx.WithContext(ctx).Exec(
		"INSERT INTO verification_history_seq (id, seq) VALUES (?, 0) ON CONFLICT (id) DO NOTHING",
		historySeqRow,
	).Error; err != nil {
		return 0, "", err
	}

	var currentSeq int64
	if err := tx.WithContext(ctx).Raw(
		"SELECT seq FROM verification_history_seq WHERE id = ? FOR UPDATE",
		historySeqRow,
	).Scan(&currentSeq).Error; err != nil {
		return 0, "", err
	}
	nextSeq := currentSeq + 1
	if err := tx.WithContext(ctx).Exec(
		"UPDATE verification_history_seq SET seq = ? WHERE id = ?",
		nextSeq,
		historySeqRow,
	).Error; err != nil {
		return 0, "", err
	}

	prevHash := usecase.ZeroRecordHash()
	if currentSeq > 0 {
		var prev VerificationRecordModel
		if err := tx.WithContext(ctx).Where("seq = ?", currentSeq).Take(&prev).Error; err != nil {
			return 0, "", err
		}
		prevHash = prev.RecordHash
	}
	if prevHash == "" {
		return 0, "", fmt.Errorf("missing record hash at seq %d", currentSeq)
	}
	return nextSeq, prevHash, nil
}

func recordModelFromDomain(record domain.VerificationRecord, reasonsJSON []byte) VerificationRecordModel {
	return VerificationRecordModel{
		ID:             record.ID,
		Seq:            record.Seq,
		PollID:         record.PollID,
		Outcome:        string(record.Outcome),
		ReasonsJSON:    reasonsJSON,
		Fingerprint:    record.Fingerprint,
		PayloadHash:    record.PayloadHash,
		PrevRecordHash: record.PrevRecordHash,
		RecordHash:     record.RecordHash,
		CreatedAt:      record.CreatedAt.UTC(),
	}
}

func recordsFromModels(models []VerificationRecordModel) ([]domain.VerificationRecord, error) {
	out := make([]domain.VerificationRecord, 0, len(models))
	for _, model := range models {
		var reasons []string
		if err := json.Unmarshal(model.ReasonsJSON, &reasons); err != nil {
			return nil, fmt.Errorf("decode reasons of record %s: %w", model.ID, err)
		}
		out = append(out, domain.VerificationRecord{
			ID:             model.ID,
			Seq:            model.Seq,
			PollID:         model.PollID,
			Outcome:        domain.VerificationOutcome(model.Outcome),
			Reasons:        reasons,
			Fingerprint:    model.Fingerprint,
			PayloadHash:    model.PayloadHash,
			PrevRecordHash: model.PrevRecordHash,
			RecordHash:     model.RecordHash,
			CreatedAt:      model.CreatedAt.UTC(),
		})
	}
	return out, nil
}

var _ usecase.HistoryRepository = (*HistoryRepository)(nil)
