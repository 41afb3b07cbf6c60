package accountservice

import (
	"context"
	"testing"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/test"
	"github.com/go-petr/pet-wallet/internal/transferservice"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWallet(t *testing.T) {
	t.Parallel()

	wallet := test.RandomWallet(12_345)

	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	repo.EXPECT().GetWallet(gomock.Any(), gomock.Eq(wallet.Username)).Times(1).Return(wallet, nil)

	got, err := New(repo).Wallet(context.Background(), wallet.Username)
	require.NoError(t, err)

	if diff := cmp.Diff(wallet, got); diff != "" {
		t.Errorf("Wallet() mismatch (-want +got):\n%s", diff)
	}
}

func TestListBankAccounts(t *testing.T) {
	owner := test.RandomWallet(0)
	accounts := []domain.BankAccount{
		test.RandomBankAccount(owner.Username, 100_000),
		test.RandomBankAccount(owner.Username, 0),
	}

	testCases := []struct {
		name       string
		buildStubs func(repo *MockRepo)
		want       []domain.BankAccount
		wantErr    error
	}{
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().ListBankAccounts(gomock.Any(), gomock.Eq(owner.Username)).Times(1).Return(accounts, nil)
			},
			want: accounts,
		},
		{
			name: "Internal",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().ListBankAccounts(gomock.Any(), gomock.Eq(owner.Username)).Times(1).
					Return(nil, errorspkg.ErrInternal)
			},
			wantErr: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := NewMockRepo(ctrl)
			tc.buildStubs(repo)

			got, err := New(repo).ListBankAccounts(context.Background(), owner.Username)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestWalletQR(t *testing.T) {
	wallet := test.RandomWallet(0)

	testCases := []struct {
		name    string
		amount  string
		want    domain.QRPayload
		wantErr error
	}{
		{
			name:   "WithAmount",
			amount: "25.5",
			want:   domain.QRPayload{Email: wallet.Email, Name: wallet.FullName, Amount: "25.50", Note: "rent"},
		},
		{
			name: "OpenAmount",
			want: domain.QRPayload{Email: wallet.Email, Name: wallet.FullName, Note: "rent"},
		},
		{
			name:    "InvalidAmount",
			amount:  "-1",
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := NewMockRepo(ctrl)
			repo.EXPECT().GetWallet(gomock.Any(), gomock.Eq(wallet.Username)).Times(1).Return(wallet, nil)

			payload, err := New(repo).WalletQR(context.Background(), wallet.Username, tc.amount, "rent")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			got, err := transferservice.ParseQRPayload(payload)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestListWallets(t *testing.T) {
	wallets := []domain.Wallet{test.RandomWallet(0), test.RandomWallet(50_000)}

	testCases := []struct {
		name      string
		limit     int32
		after     string
		wantLimit int32
	}{
		{name: "DefaultLimit", limit: 0, wantLimit: domain.DefaultPageSize},
		{name: "CappedLimit", limit: 500, after: "alice", wantLimit: domain.MaxPageSize},
		{name: "GivenLimit", limit: 2, after: "bob", wantLimit: 2},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := NewMockRepo(ctrl)
			repo.EXPECT().ListWallets(gomock.Any(), gomock.Eq(tc.wantLimit), gomock.Eq(tc.after)).Times(1).Return(wallets, nil)

			got, err := New(repo).ListWallets(context.Background(), tc.limit, tc.after)
			require.NoError(t, err)

			if diff := cmp.Diff(wallets, got); diff != "" {
				t.Errorf("ListWallets() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
