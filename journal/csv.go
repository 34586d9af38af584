package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

// CSV appends records to two CSV files. Headers are written only when a
// file is created empty.
type CSV struct {
	mu     sync.Mutex
	txs    *csv.Writer
	prices *csv.Writer
	tf, pf *os.File
}

var (
	txHeader    = []string{"id", "time", "player", "instrument", "kind", "quantity", "price", "amount"}
	priceHeader = []string{"time", "instrument", "price", "previous", "source"}
)

func NewCSV(transactionsPath, pricesPath string) (*CSV, error) {
	tf, tw, err := openCSV(transactionsPath, txHeader)
	if err != nil {
		return nil, err
	}
	pf, pw, err := openCSV(pricesPath, priceHeader)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}
	return &CSV{txs: tw, prices: pw, tf: tf, pf: pf}, nil
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (j *CSV) RecordTransaction(t TransactionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.txs.Write([]string{
		t.ID,
		t.Time.UTC().Format(time.RFC3339Nano),
		t.Player.String(),
		t.Instrument,
		string(t.Kind),
		strconv.FormatInt(t.Quantity, 10),
		t.Price.String(),
		t.Amount.String(),
	})
	if err != nil {
		return err
	}
	j.txs.Flush()
	return j.txs.Error()
}

func (j *CSV) RecordPrice(p PricePoint) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.prices.Write([]string{
		p.Time.UTC().Format(time.RFC3339Nano),
		p.Instrument,
		p.Price.String(),
		p.Previous.String(),
		p.Source,
	})
	if err != nil {
		return err
	}
	j.prices.Flush()
	return j.prices.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.txs.Flush()
	if err := j.txs.Error(); err != nil {
		return err
	}
	j.prices.Flush()
	if err := j.prices.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.pf.Close()
}
