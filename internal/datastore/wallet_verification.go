package datastore

import (
	"context"

	"github.com/uptrace/bun"

	"nftconnect/internal/models"
)

func CreateTableWalletVerification(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.WalletVerification)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.WalletVerification)(nil)).Index("index_wallet_verification_address").IfNotExists().Column("address").Exec(ctx)
	return err
}

func CreateWalletVerification(ctx context.Context, db bun.IDB, verification *models.WalletVerification) (*models.WalletVerification, error) {
	_, err := db.NewInsert().Model(verification).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return verification, nil
}

type VerificationRecorder struct {
	db *bun.DB
}

func NewVerificationRecorder(db *bun.DB) *VerificationRecorder {
	return &VerificationRecorder{db}
}

func (r *VerificationRecorder) Record(ctx context.Context, verification *models.WalletVerification) error {
	_, err := CreateWalletVerification(ctx, r.db, verification)
	return err
}
