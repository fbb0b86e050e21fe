package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/cryptox"
	"github.com/dmitrijs2005/bililive/internal/dbx"
)

const (
	keyBlob  = "session.blob"
	keyNonce = "session.nonce"
	keySalt  = "session.salt"
)

// ErrPassphraseRequired is returned by Load when the stored session is
// sealed and no passphrase was configured.
var ErrPassphraseRequired = errors.New("stored session is encrypted, passphrase required")

// SQLitePersistence keeps the session in the metadata table. With a
// passphrase the blob is sealed with cryptox; without one it is plain JSON.
type SQLitePersistence struct {
	db         *sql.DB
	passphrase []byte
}

func NewSQLitePersistence(db *sql.DB, passphrase []byte) *SQLitePersistence {
	return &SQLitePersistence{db: db, passphrase: passphrase}
}

// SetPassphrase replaces the passphrase used by later Load and Save calls.
func (p *SQLitePersistence) SetPassphrase(passphrase []byte) {
	p.passphrase = passphrase
}

// SavedAt reports when the stored session was last written, or the zero
// time when nothing is stored.
func (p *SQLitePersistence) SavedAt(ctx context.Context) (time.Time, error) {
	return p.getMetadataRepo(p.db).UpdatedAt(ctx, keyBlob)
}

func (p *SQLitePersistence) getMetadataRepo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

func (p *SQLitePersistence) Load(ctx context.Context) (*Session, error) {
	repo := p.getMetadataRepo(p.db)

	blob, err := repo.Get(ctx, keyBlob)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}

	nonce, err := repo.Get(ctx, keyNonce)
	if err != nil {
		return nil, err
	}

	var s Session
	if nonce == nil {
		if err := json.Unmarshal(blob, &s); err != nil {
			return nil, fmt.Errorf("decode stored session: %w", err)
		}
		return &s, nil
	}

	if len(p.passphrase) == 0 {
		return nil, ErrPassphraseRequired
	}

	salt, err := repo.Get(ctx, keySalt)
	if err != nil {
		return nil, err
	}

	key := cryptox.DeriveKey(p.passphrase, salt)
	defer common.WipeByteArray(key)

	if err := cryptox.OpenJSON(blob, nonce, key, &s); err != nil {
		return nil, fmt.Errorf("open stored session: %w", err)
	}
	return &s, nil
}

func (p *SQLitePersistence) Save(ctx context.Context, s Session) error {
	if len(p.passphrase) == 0 {
		blob, err := json.Marshal(s)
		if err != nil {
			return err
		}
		return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := p.getMetadataRepo(tx)
			if err := repo.Delete(ctx, keyNonce, keySalt); err != nil {
				return err
			}
			return repo.Set(ctx, keyBlob, blob)
		})
	}

	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey(p.passphrase, salt)
	defer common.WipeByteArray(key)

	blob, nonce, err := cryptox.SealJSON(s, key)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := p.getMetadataRepo(tx)
		if err := repo.Set(ctx, keySalt, salt); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyNonce, nonce); err != nil {
			return err
		}
		return repo.Set(ctx, keyBlob, blob)
	})
}

func (p *SQLitePersistence) Delete(ctx context.Context) error {
	return p.getMetadataRepo(p.db).Delete(ctx, keyBlob, keyNonce, keySalt)
}
