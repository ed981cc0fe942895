package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/dedup"
	"github.com/trunkstore-lab/trunkstore/internal/model"
)

// WriteBatch commits the call row and its log entries in one transaction.
// Re-delivered rows are compared with what is stored: identical rows are
// reported as duplicates, a differing call row aborts the batch with a
// ConflictError and a differing log row is rejected on its own.
func (a *Adapter) WriteBatch(ctx context.Context, b *storage.Batch) (*storage.BatchResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.writeTimeout)
	defer cancel()

	start := time.Now()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("write batch: begin tx", b.CallID, 0, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res := &storage.BatchResult{
		Freqs: make([]storage.ItemResult, len(b.Freqs)),
		Srcs:  make([]storage.ItemResult, len(b.Srcs)),
	}

	if b.Call != nil {
		res.Call, err = a.insertCall(ctx, tx, b.Call)
		if err != nil {
			return nil, err
		}
	}

	for i, e := range b.Freqs {
		res.Freqs[i], err = a.insertFreq(ctx, tx, e)
		if err != nil {
			return nil, err
		}
	}

	for i, e := range b.Srcs {
		res.Srcs[i], err = a.insertSrc(ctx, tx, e)
		if err != nil {
			return nil, err
		}
	}

	if b.Call != nil && res.Call == storage.ItemInserted && a.notifyChannel != "" {
		if _, err := tx.ExecContext(ctx, queryNotifyCall, a.notifyChannel, b.Call.Filename); err != nil {
			return nil, classify("write batch: notify", b.CallID, 0, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("write batch: commit", b.CallID, 0, err)
	}

	slog.Debug("[Postgres] Wrote batch",
		"call_id", b.CallID,
		"with_call", b.Call != nil,
		"freqs", len(b.Freqs),
		"srcs", len(b.Srcs),
		"duration", time.Since(start))
	return res, nil
}

func (a *Adapter) insertCall(ctx context.Context, tx *sql.Tx, c *model.Call) (storage.ItemStatus, error) {
	var filename string
	err := tx.QueryRowContext(ctx, queryInsertCall,
		c.Filename,
		c.Freq,
		c.FreqError,
		c.Signal,
		c.Noise,
		c.SourceNum,
		c.RecorderNum,
		c.TDMASlot,
		c.Phase2TDMA,
		c.StartTime,
		c.StopTime,
		c.Emergency,
		c.Priority,
		c.Mode,
		c.Duplex,
		c.Encrypted,
		c.CallLength,
		c.Talkgroup,
		c.AudioType,
		c.ShortName,
		c.Transcription,
	).Scan(&filename)
	if err == nil {
		return storage.ItemInserted, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.ItemRejected, classify("insert call", c.Filename, 0, err)
	}

	stored, err := scanCall(tx.QueryRowContext(ctx, querySelectCall, c.Filename))
	if err != nil {
		return storage.ItemRejected, classify("read stored call", c.Filename, 0, err)
	}
	if !stored.Equal(*c) {
		return storage.ItemRejected, ingesterr.New(ingesterr.KindConflict, c.Filename,
			"stored call row differs from the submitted one")
	}
	return storage.ItemDuplicate, nil
}

func (a *Adapter) insertFreq(ctx context.Context, tx *sql.Tx, e model.FrequencyLogEntry) (storage.ItemResult, error) {
	var hash int64
	err := tx.QueryRowContext(ctx, queryInsertFreq,
		e.CallID,
		e.Hash,
		e.Freq,
		e.Time,
		e.Pos.Microseconds(),
		e.Len.Microseconds(),
		e.ErrorCount,
		e.SpikeCount,
	).Scan(&hash)
	if err == nil {
		return storage.ItemResult{Hash: e.Hash, Status: storage.ItemInserted}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.ItemResult{}, classify("insert freqlist entry", e.CallID, e.Hash, err)
	}

	stored, err := scanFreq(tx.QueryRowContext(ctx, querySelectFreq, e.Hash))
	if err != nil {
		return storage.ItemResult{}, classify("read stored freqlist entry", e.CallID, e.Hash, err)
	}
	return compared(e.CallID, e.Hash, stored.Equal(e)), nil
}

func (a *Adapter) insertSrc(ctx context.Context, tx *sql.Tx, e model.SourceLogEntry) (storage.ItemResult, error) {
	var hash int64
	err := tx.QueryRowContext(ctx, queryInsertSrc,
		e.CallID,
		e.Hash,
		e.Src,
		e.Time,
		e.Pos.Microseconds(),
		e.Emergency,
		e.SignalSystem,
	).Scan(&hash)
	if err == nil {
		return storage.ItemResult{Hash: e.Hash, Status: storage.ItemInserted}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.ItemResult{}, classify("insert srclist entry", e.CallID, e.Hash, err)
	}

	stored, err := scanSrc(tx.QueryRowContext(ctx, querySelectSrc, e.Hash))
	if err != nil {
		return storage.ItemResult{}, classify("read stored srclist entry", e.CallID, e.Hash, err)
	}
	return compared(e.CallID, e.Hash, stored.Equal(e)), nil
}

func compared(callID string, hash int64, equal bool) storage.ItemResult {
	if equal {
		return storage.ItemResult{Hash: hash, Status: storage.ItemDuplicate}
	}
	return storage.ItemResult{Hash: hash, Status: storage.ItemRejected, Err: dedup.Collision(callID, hash)}
}
