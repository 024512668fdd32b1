package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/domain/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type sweeperMocks struct {
	tx           *TxManagerMock
	products     *ProductRepoMock
	variants     *VariantRepoMock
	reservations *ReservationRepoMock
	idem         *IdempotencyRepoMock
}

func newSweeperMocks() sweeperMocks {
	m := sweeperMocks{
		tx:           new(TxManagerMock),
		products:     new(ProductRepoMock),
		variants:     new(VariantRepoMock),
		reservations: new(ReservationRepoMock),
		idem:         new(IdempotencyRepoMock),
	}
	m.tx.Repos = &TxReposMock{
		products:     m.products,
		variants:     m.variants,
		reservations: m.reservations,
		idempotency:  m.idem,
	}
	return m
}

func (m sweeperMocks) usecase() *SweeperUsecase {
	resUC := NewReservationUsecase(m.tx, m.reservations)
	return NewSweeperUsecase(resUC, m.reservations, m.idem, 24*time.Hour, zerolog.Nop())
}

func expiredReservation(id int64, productID int64, qty int64) model.StockReservation {
	past := time.Now().Add(-time.Hour)
	return model.StockReservation{
		ID: id, ProductID: productID, Quantity: qty,
		OwnerType: model.ReservationOwnerCart, OwnerID: "7",
		Status: model.ReservationStatusActive, ExpiresAt: &past,
	}
}

func TestSweeperUsecase_Sweep_DryRun_CountsOnly(t *testing.T) {
	m := newSweeperMocks()

	m.reservations.On("ListExpired", mock.Anything, mock.Anything, sweepBatchSize).Return([]model.StockReservation{
		expiredReservation(1, 10, 2),
		expiredReservation(2, 11, 1),
	}, nil)

	uc := m.usecase()

	result, err := uc.Sweep(context.Background(), true)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 0, result.Released)

	// dry-runでは何も触らない
	m.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
	m.idem.AssertNotCalled(t, "DeleteUnboundBefore", mock.Anything, mock.Anything)
}

func TestSweeperUsecase_Sweep_ReleasesExpiredAndPurgesKeys(t *testing.T) {
	m := newSweeperMocks()

	res := expiredReservation(1, 10, 2)

	m.reservations.On("ListExpired", mock.Anything, mock.Anything, sweepBatchSize).Return([]model.StockReservation{res}, nil)
	m.tx.On("WithinTx", mock.Anything).Return(nil)
	m.reservations.On("FindByID", mock.Anything, int64(1)).Return(res, nil)
	m.products.On("LockByIDs", mock.Anything, []int64{10}).Return(map[int64]model.Product{
		10: {ID: 10, QuantityOnHand: 3},
	}, nil)

	// 監査用にEXPIREDへ遷移させる（CANCELLEDではなく）
	m.reservations.On("TransitionFromActive", mock.Anything, int64(1), model.ReservationStatusExpired).Return(true, nil)
	m.products.On("UpdateQuantity", mock.Anything, int64(10), int64(5)).Return(nil)
	m.idem.On("DeleteUnboundBefore", mock.Anything, mock.Anything).Return(int64(3), nil)

	uc := m.usecase()

	result, err := uc.Sweep(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Released)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, int64(3), result.PurgedKeys)

	m.products.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
	m.idem.AssertExpectations(t)
}

func TestSweeperUsecase_Sweep_ContinuesAfterFailure(t *testing.T) {
	m := newSweeperMocks()

	res1 := expiredReservation(1, 10, 2)
	res2 := expiredReservation(2, 11, 1)

	m.reservations.On("ListExpired", mock.Anything, mock.Anything, sweepBatchSize).Return([]model.StockReservation{res1, res2}, nil)
	m.tx.On("WithinTx", mock.Anything).Return(nil)

	// 1件目は失敗、2件目は成功。失敗した1件が全体を止めない
	m.reservations.On("FindByID", mock.Anything, int64(1)).Return(model.StockReservation{}, errors.New("db down"))
	m.reservations.On("FindByID", mock.Anything, int64(2)).Return(res2, nil)
	m.products.On("LockByIDs", mock.Anything, []int64{11}).Return(map[int64]model.Product{
		11: {ID: 11, QuantityOnHand: 0},
	}, nil)
	m.reservations.On("TransitionFromActive", mock.Anything, int64(2), model.ReservationStatusExpired).Return(true, nil)
	m.products.On("UpdateQuantity", mock.Anything, int64(11), int64(1)).Return(nil)
	m.idem.On("DeleteUnboundBefore", mock.Anything, mock.Anything).Return(int64(0), nil)

	uc := m.usecase()

	result, err := uc.Sweep(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Released)
	assert.Equal(t, 1, result.Failed)

	m.reservations.AssertExpectations(t)
}

func TestSweeperUsecase_Sweep_ListError(t *testing.T) {
	m := newSweeperMocks()

	m.reservations.On("ListExpired", mock.Anything, mock.Anything, sweepBatchSize).Return(nil, errors.New("db down"))

	uc := m.usecase()

	_, err := uc.Sweep(context.Background(), false)
	assert.Error(t, err)
}
