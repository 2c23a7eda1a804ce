package htlc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/lightningnetwork/lnd/lntypes"
)

const (
	// LedgerFileName is the bbolt file created in the data directory.
	LedgerFileName = "ledger.db"
)

var (
	invoiceBucket  = []byte("invoices")
	settingsBucket = []byte("settings")

	networkKey        = []byte("network")
	identityPubKeyKey = []byte("identity_pubkey")
)

var (
	// ErrInvoiceNotFound is returned when no record exists for a payment
	// hash.
	ErrInvoiceNotFound = errors.New("invoice not found in ledger")

	// ErrEmptyPreimage is returned when a record exists but holds no
	// preimage, as for standard invoices.
	ErrEmptyPreimage = errors.New("ledger record has no preimage")

	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt ledger record")

	errBucketMissing = errors.New("bucket missing")
)

// Ledger persists invoice records keyed by payment hash together with a few
// process wide settings. Writes to the same hash overwrite each other; the
// last write wins.
type Ledger struct {
	db kvdb.Backend
}

// OpenLedger opens or creates the ledger inside dataDir. The returned ledger
// must be closed on shutdown.
func OpenLedger(dataDir string) (*Ledger, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	db, err := kvdb.GetBoltBackend(&kvdb.BoltBackendConfig{
		DBPath:            dataDir,
		DBFileName:        LedgerFileName,
		NoFreelistSync:    true,
		AutoCompactMinAge: kvdb.DefaultBoltAutoCompactMinAge,
		DBTimeout:         kvdb.DefaultDBTimeout,
	})
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	err = kvdb.Update(db, func(tx kvdb.RwTx) error {
		for _, name := range [][]byte{invoiceBucket, settingsBucket} {
			if _, err := tx.CreateTopLevelBucket(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	}, func() {})
	if err != nil {
		db.Close()
		return nil, &StorageError{Op: "init", Err: err}
	}

	log.Debugf("Opened ledger in %s", dataDir)
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// PutInvoice writes rec under its payment hash, replacing any earlier
// record.
func (l *Ledger) PutInvoice(rec *InvoiceRecord) error {
	var b bytes.Buffer
	if err := rec.encode(&b); err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	err := kvdb.Update(l.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(invoiceBucket)
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put(rec.PaymentHash[:], b.Bytes())
	}, func() {})
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}

	log.Debugf("Stored invoice %v (kind=%v, own=%v, preimage=%v)",
		rec.PaymentHash, rec.Kind, rec.IsOwnInvoice, rec.Preimage != nil)
	return nil
}

// GetInvoice returns the record stored for hash, or nil if there is none.
func (l *Ledger) GetInvoice(hash lntypes.Hash) (*InvoiceRecord, error) {
	var (
		rec       *InvoiceRecord
		decodeErr error
	)
	err := kvdb.View(l.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(invoiceBucket)
		if bucket == nil {
			return errBucketMissing
		}
		v := bucket.Get(hash[:])
		if v == nil {
			return nil
		}
		rec, decodeErr = decodeInvoiceRecord(hash, v)
		return nil
	}, func() {
		rec = nil
		decodeErr = nil
	})
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w %v: %v", ErrCorruptRecord, hash,
			decodeErr)
	}
	return rec, nil
}

// ResolvePreimageForSettlement returns the preimage needed to settle the
// hold invoice identified by hash.
func (l *Ledger) ResolvePreimageForSettlement(
	hash lntypes.Hash) (lntypes.Preimage, error) {

	rec, err := l.GetInvoice(hash)
	switch {
	case err != nil:
		return lntypes.Preimage{}, err
	case rec == nil:
		return lntypes.Preimage{}, fmt.Errorf("%w: %v",
			ErrInvoiceNotFound, hash)
	case rec.Preimage == nil:
		return lntypes.Preimage{}, fmt.Errorf("%w: %v",
			ErrEmptyPreimage, hash)
	}
	return *rec.Preimage, nil
}

// AnnotateOwnership reports whether an invoice paying to destPubKey was
// issued by the node identified by localPubKey.
func (l *Ledger) AnnotateOwnership(hash lntypes.Hash, destPubKey,
	localPubKey string) bool {

	own := destPubKey != "" && strings.EqualFold(destPubKey, localPubKey)
	log.Tracef("Invoice %v destination %s own=%v", hash, destPubKey, own)
	return own
}

// ListInvoices returns all decodable records. Corrupt entries are logged and
// skipped.
func (l *Ledger) ListInvoices() ([]InvoiceRecord, error) {
	var records []InvoiceRecord
	err := kvdb.View(l.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(invoiceBucket)
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.ForEach(func(k, v []byte) error {
			hash, err := lntypes.MakeHash(k)
			if err != nil {
				log.Warnf("Skipping ledger key %x: %v", k, err)
				return nil
			}
			rec, err := decodeInvoiceRecord(hash, v)
			if err != nil {
				log.Warnf("Skipping corrupt record %v: %v", hash,
					err)
				return nil
			}
			records = append(records, *rec)
			return nil
		})
	}, func() {
		records = nil
	})
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return records, nil
}

// ReconcileStatus is the outcome of checking one stored record.
type ReconcileStatus string

const (
	ReconcileOK         ReconcileStatus = "ok"
	ReconcileNoPreimage ReconcileStatus = "no_preimage"
	ReconcileMismatch   ReconcileStatus = "mismatch"
	ReconcileCorrupt    ReconcileStatus = "corrupt"
)

type ReconcileResult struct {
	PaymentHash string          `json:"payment_hash"`
	Status      ReconcileStatus `json:"status"`
	Detail      string          `json:"detail,omitempty"`
}

// Reconcile checks every stored preimage against the payment hash it is
// stored under.
func (l *Ledger) Reconcile() ([]ReconcileResult, error) {
	var results []ReconcileResult
	err := kvdb.View(l.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(invoiceBucket)
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.ForEach(func(k, v []byte) error {
			results = append(results, reconcileEntry(k, v))
			return nil
		})
	}, func() {
		results = nil
	})
	if err != nil {
		return nil, &StorageError{Op: "reconcile", Err: err}
	}
	return results, nil
}

func reconcileEntry(k, v []byte) ReconcileResult {
	hash, err := lntypes.MakeHash(k)
	if err != nil {
		return ReconcileResult{
			PaymentHash: fmt.Sprintf("%x", k),
			Status:      ReconcileCorrupt,
			Detail:      err.Error(),
		}
	}

	res := ReconcileResult{PaymentHash: hash.String()}
	rec, err := decodeInvoiceRecord(hash, v)
	switch {
	case err != nil:
		res.Status = ReconcileCorrupt
		res.Detail = err.Error()
	case rec.Preimage == nil:
		res.Status = ReconcileNoPreimage
	case !rec.Preimage.Matches(hash):
		res.Status = ReconcileMismatch
		res.Detail = fmt.Sprintf("sha256(preimage) = %v",
			rec.Preimage.Hash())
	default:
		res.Status = ReconcileOK
	}
	return res
}

func (l *Ledger) putSetting(key []byte, value string) error {
	err := kvdb.Update(l.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(settingsBucket)
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put(key, []byte(value))
	}, func() {})
	if err != nil {
		return &StorageError{Op: "put setting " + string(key), Err: err}
	}
	return nil
}

func (l *Ledger) getSetting(key []byte) (string, error) {
	var value string
	err := kvdb.View(l.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(settingsBucket)
		if bucket == nil {
			return errBucketMissing
		}
		value = string(bucket.Get(key))
		return nil
	}, func() {
		value = ""
	})
	if err != nil {
		return "", &StorageError{Op: "get setting " + string(key), Err: err}
	}
	return value, nil
}

// SetNetwork records the network the ledger's invoices belong to.
func (l *Ledger) SetNetwork(network string) error {
	return l.putSetting(networkKey, network)
}

// Network returns the stored network, empty if never set.
func (l *Ledger) Network() (string, error) {
	return l.getSetting(networkKey)
}

// SetIdentityPubKey caches the local node's identity pubkey.
func (l *Ledger) SetIdentityPubKey(pubKey string) error {
	return l.putSetting(identityPubKeyKey, pubKey)
}

// IdentityPubKey returns the cached identity pubkey, empty if unknown.
func (l *Ledger) IdentityPubKey() (string, error) {
	return l.getSetting(identityPubKeyKey)
}
