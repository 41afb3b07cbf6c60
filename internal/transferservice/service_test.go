package transferservice

import (
	"context"
	"testing"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/test"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	repo     *MockRepo
	accounts *MockAccountStore
	notifier *MockNotifier
}

func newTestService(t *testing.T, timeout time.Duration) (*Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mocks{
		repo:     NewMockRepo(ctrl),
		accounts: NewMockAccountStore(ctrl),
		notifier: NewMockNotifier(ctrl),
	}

	return New(m.repo, m.accounts, m.notifier, timeout), m
}

// committed mimics the repository by echoing the planned records back as a committed result.
func committed(balance domain.Money) func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
	return func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
		result := domain.TransferResult{
			TransferID: plan.TransferID,
			State:      domain.StateCommitted,
			Kind:       plan.Records[0].Kind,
			NewBalance: balance,
		}

		for i, r := range plan.Records {
			result.Records = append(result.Records, domain.Record{
				ID:          int64(i + 1),
				Owner:       r.Owner,
				Amount:      r.Amount,
				Kind:        r.Kind,
				Status:      domain.StatusCompleted,
				Description: r.Description,
				TransferID:  plan.TransferID,
				Metadata:    r.Metadata,
			})
		}

		return result, nil
	}
}

func TestSendToWallet(t *testing.T) {
	sender := test.RandomWallet(50_000)
	recipient := test.RandomWallet(10_000)

	testCases := []struct {
		name       string
		arg        domain.SendParams
		buildStubs func(m mocks)
		wantErr    error
		wantState  domain.TransferState
		check      func(t *testing.T, res domain.TransferResult)
	}{
		{
			name: "OK",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "200",
				Description:    "dinner",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(recipient.Email)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
						require.Equal(t, domain.Money(20_000), plan.Amount)
						require.Equal(t, domain.WalletRef(sender.Username), *plan.Debit)
						require.Equal(t, domain.WalletRef(recipient.Username), *plan.Credit)
						require.Len(t, plan.Records, 2)
						require.Equal(t, domain.Money(-20_000), plan.Records[0].Amount)
						require.Equal(t, domain.Money(20_000), plan.Records[1].Amount)
						require.Equal(t, "dinner", plan.Records[0].Description)
						require.Equal(t, plan.Records[0].Description, plan.Records[1].Description)
						require.Equal(t, recipient.FullName, plan.Records[0].Metadata[domain.MetaRecipientName])
						require.NotEqual(t, uuid.Nil, plan.TransferID)

						return committed(30_000)(ctx, plan)
					})
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2)
			},
			wantState: domain.StateCommitted,
			check: func(t *testing.T, res domain.TransferResult) {
				require.Equal(t, domain.Money(30_000), res.NewBalance)
				require.Len(t, res.Records, 2)
				require.Equal(t, res.Records[0].TransferID, res.Records[1].TransferID)
			},
		},
		{
			name: "InvalidAmount",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "12.345",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Any()).Times(0)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrInvalidAmount,
			wantState: domain.StateRejected,
		},
		{
			name: "NegativeAmount",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "-5",
			},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrInvalidAmount,
			wantState: domain.StateRejected,
		},
		{
			name: "EmptyRecipient",
			arg: domain.SendParams{
				Actor:  sender.Username,
				Amount: "200",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Any()).Times(0)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrDestinationNotFound,
			wantState: domain.StateRejected,
		},
		{
			name: "SourceNotFound",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).
					Return(domain.Wallet{}, domain.ErrAccountNotFound)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrSourceNotFound,
			wantState: domain.StateRejected,
		},
		{
			name: "BankSourceNotOwned",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10",
				FromAccount:    "1234567890",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().GetBankAccount(gomock.Any(), gomock.Eq(sender.Username), gomock.Eq("1234567890")).
					Times(1).
					Return(domain.BankAccount{}, domain.ErrAccountNotFound)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrSourceNotFound,
			wantState: domain.StateRejected,
		},
		{
			name: "DestinationNotFound",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: "nobody@email.com",
				Amount:         "10",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq("nobody@email.com")).Times(1).
					Return(domain.Wallet{}, domain.ErrAccountNotFound)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrDestinationNotFound,
			wantState: domain.StateRejected,
		},
		{
			name: "SelfTransfer",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: sender.Email,
				Amount:         "10",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(sender.Email)).Times(1).Return(sender, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrSelfTransfer,
			wantState: domain.StateRejected,
		},
		{
			name: "InsufficientFunds",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10000",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(recipient.Email)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, domain.ErrInsufficientFunds)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrInsufficientFunds,
			wantState: domain.StateAborted,
		},
		{
			name: "StorageFault",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(recipient.Email)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, errorspkg.ErrInternal)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr:   domain.ErrTransferFailed,
			wantState: domain.StateAborted,
		},
		{
			name: "CommitFailedAfterApply",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(recipient.Email)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{State: domain.StateApplied}, errorspkg.ErrInternal)
			},
			wantErr:   domain.ErrTransferFailed,
			wantState: domain.StateAborted,
		},
		{
			name: "Replayed",
			arg: domain.SendParams{
				Actor:          sender.Username,
				RecipientEmail: recipient.Email,
				Amount:         "10",
				IdempotencyKey: "key-1",
			},
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(recipient.Email)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
						require.Equal(t, "key-1", plan.IdempotencyKey)
						return domain.TransferResult{State: domain.StateCommitted, Replayed: true}, nil
					})
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
			},
			wantState: domain.StateCommitted,
			check: func(t *testing.T, res domain.TransferResult) {
				require.True(t, res.Replayed)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, m := newTestService(t, time.Second)
			tc.buildStubs(m)

			res, err := s.SendToWallet(context.Background(), tc.arg)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tc.wantState, res.State)

			if tc.check != nil {
				tc.check(t, res)
			}
		})
	}
}

func TestTransferOutcomeUnknown(t *testing.T) {
	sender := test.RandomWallet(50_000)
	recipient := test.RandomWallet(0)

	s, m := newTestService(t, 20*time.Millisecond)

	m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Any()).Times(1).Return(sender, nil)
	m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Any()).Times(1).Return(recipient, nil)
	m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
		DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
			<-ctx.Done()
			return domain.TransferResult{}, errorspkg.ErrInternal
		})
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	res, err := s.SendToWallet(context.Background(), domain.SendParams{
		Actor:          sender.Username,
		RecipientEmail: recipient.Email,
		Amount:         "10",
		IdempotencyKey: "retry-me",
	})

	require.ErrorIs(t, err, domain.ErrOutcomeUnknown)
	require.Equal(t, domain.ReasonStorageFault, domain.ReasonOf(err))
	require.Equal(t, domain.StateAborted, res.State)
}

func TestBankTransfer(t *testing.T) {
	sender := test.RandomWallet(0)
	recipient := test.RandomWallet(0)
	from := test.RandomBankAccount(sender.Username, 100_000)
	to := test.RandomBankAccount(recipient.Username, 0)

	testCases := []struct {
		name        string
		routingCode string
		buildStubs  func(m mocks)
		wantErr     error
	}{
		{
			name:        "OK",
			routingCode: to.RoutingCode,
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().GetBankAccount(gomock.Any(), gomock.Eq(sender.Username), gomock.Eq(from.AccountNumber)).
					Times(1).Return(from, nil)
				m.accounts.EXPECT().FindBankAccount(gomock.Any(), gomock.Eq(to.AccountNumber)).Times(1).Return(to, nil)
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(recipient.Username)).Times(1).Return(recipient, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
					DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
						require.Equal(t, domain.BankRef(sender.Username, from.AccountNumber), *plan.Debit)
						require.Equal(t, domain.BankRef(recipient.Username, to.AccountNumber), *plan.Credit)
						require.Equal(t, domain.KindBankTransfer, plan.Records[0].Kind)

						meta := plan.Records[0].Metadata
						require.Equal(t, from.AccountNumber, meta[domain.MetaFromAccount])
						require.Equal(t, to.AccountNumber, meta[domain.MetaToAccount])
						require.Equal(t, to.RoutingCode, meta[domain.MetaRoutingCode])
						require.Equal(t, "Landlord", meta[domain.MetaRecipientName])

						return committed(90_000)(ctx, plan)
					})
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2)
			},
		},
		{
			name:        "RoutingCodeMismatch",
			routingCode: "ZZZZ0000000",
			buildStubs: func(m mocks) {
				m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(sender.Username)).Times(1).Return(sender, nil)
				m.accounts.EXPECT().GetBankAccount(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(from, nil)
				m.accounts.EXPECT().FindBankAccount(gomock.Any(), gomock.Eq(to.AccountNumber)).Times(1).Return(to, nil)
				m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrDestinationNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, m := newTestService(t, time.Second)
			tc.buildStubs(m)

			_, err := s.BankTransfer(context.Background(), domain.BankTransferParams{
				Actor:         sender.Username,
				FromAccount:   from.AccountNumber,
				ToAccount:     to.AccountNumber,
				RoutingCode:   tc.routingCode,
				RecipientName: "Landlord",
				Amount:        "100",
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestPayBill(t *testing.T) {
	payer := test.RandomWallet(100_000)

	s, m := newTestService(t, time.Second)

	m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(payer.Username)).Times(1).Return(payer, nil)
	m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
		DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
			require.NotNil(t, plan.Debit)
			require.Nil(t, plan.Credit)
			require.Len(t, plan.Records, 1)
			require.Equal(t, domain.Money(-45_050), plan.Records[0].Amount)
			require.Equal(t, "Tata Power bill payment", plan.Records[0].Description)
			require.NotNil(t, plan.Bill)
			require.Equal(t, "electricity", plan.Bill.Category)
			require.Equal(t, domain.PayByWallet, plan.Bill.PaymentMethod)
			require.Equal(t, domain.Money(45_050), plan.Bill.Amount)

			return committed(54_950)(ctx, plan)
		})
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(1)

	res, err := s.PayBill(context.Background(), domain.PayBillParams{
		Actor:         payer.Username,
		Category:      "electricity",
		Provider:      "Tata Power",
		CustomerID:    "CUST-1",
		Amount:        "450.50",
		PaymentMethod: domain.PayByWallet,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StateCommitted, res.State)
	require.Equal(t, domain.Money(54_950), res.NewBalance)
}

func TestOpenAccount(t *testing.T) {
	owner := test.RandomWallet(0)

	t.Run("DepositTooLow", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)
		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Any()).Times(1).Return(owner, nil)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)

		res, err := s.OpenAccount(context.Background(), domain.OpenAccountParams{
			Actor:          owner.Username,
			AccountType:    domain.AccountSavings,
			InitialDeposit: "999.99",
		})
		require.ErrorIs(t, err, domain.ErrOpeningDepositTooLow)
		require.Equal(t, domain.ReasonInvalidAmount, domain.ReasonOf(err))
		require.Equal(t, domain.StateRejected, res.State)
	})

	t.Run("InvalidType", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)
		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Any()).Times(1).Return(owner, nil)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.OpenAccount(context.Background(), domain.OpenAccountParams{
			Actor:          owner.Username,
			AccountType:    "crypto",
			InitialDeposit: "5000",
		})
		require.ErrorIs(t, err, domain.ErrInvalidAccountType)
	})

	t.Run("RetriesNumberCollision", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)

		numbers := []string{"1111111111", "2222222222"}
		s.newAccountNumber = func() string {
			n := numbers[0]
			numbers = numbers[1:]

			return n
		}
		s.newRoutingCode = func() string { return "SBIN0ABC123" }

		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Any()).Times(2).Return(owner, nil)

		gomock.InOrder(
			m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
				Return(domain.TransferResult{}, domain.ErrAccountNumberExists),
			m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
				DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
					require.Nil(t, plan.Debit)
					require.Nil(t, plan.Credit)
					require.NotNil(t, plan.Open)
					require.Equal(t, "2222222222", plan.Open.AccountNumber)
					require.Equal(t, domain.Money(500_000), plan.Open.Balance)
					require.Len(t, plan.Records, 1)
					require.Equal(t, domain.KindAccountOpening, plan.Records[0].Kind)
					require.Equal(t, "New savings account opened", plan.Records[0].Description)

					res, err := committed(500_000)(ctx, plan)
					res.Account = &domain.BankAccount{AccountNumber: plan.Open.AccountNumber, Balance: plan.Open.Balance}

					return res, err
				}),
		)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(1)

		res, err := s.OpenAccount(context.Background(), domain.OpenAccountParams{
			Actor:          owner.Username,
			AccountType:    domain.AccountSavings,
			InitialDeposit: "5000",
		})
		require.NoError(t, err)
		require.Equal(t, "2222222222", res.Account.AccountNumber)
		require.Equal(t, domain.Money(500_000), res.NewBalance)
	})
}

func TestTopUp(t *testing.T) {
	owner := test.RandomWallet(1_000)

	s, m := newTestService(t, time.Second)

	m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(owner.Username)).Times(1).Return(owner, nil)
	m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
		DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
			require.Nil(t, plan.Debit)
			require.Equal(t, domain.WalletRef(owner.Username), *plan.Credit)
			require.Len(t, plan.Records, 1)
			require.Equal(t, domain.KindCredit, plan.Records[0].Kind)
			require.Equal(t, "Wallet topup via upi", plan.Records[0].Description)
			require.Equal(t, "upi", plan.Records[0].Metadata[domain.MetaPaymentMethod])

			return committed(11_000)(ctx, plan)
		})
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Eq(domain.CreateNotificationParams{
		Owner:   owner.Username,
		Title:   "Wallet Topup",
		Message: "Your wallet has been credited with ₹100.00",
	})).Times(1)

	res, err := s.TopUp(context.Background(), domain.TopUpParams{
		Actor:         owner.Username,
		Amount:        "100",
		PaymentMethod: "upi",
	})
	require.NoError(t, err)
	require.Equal(t, domain.Money(11_000), res.NewBalance)
}

func TestPayQR(t *testing.T) {
	payer := test.RandomWallet(100_000)
	payee := test.RandomWallet(0)

	payload := EncodeQRPayload(domain.QRPayload{Email: payee.Email, Name: payee.FullName, Amount: "150", Note: "coffee"})

	t.Run("AmountFromPayload", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)

		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(payer.Username)).Times(1).Return(payer, nil)
		m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(payee.Email)).Times(1).Return(payee, nil)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
			DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
				require.Equal(t, domain.Money(15_000), plan.Amount)
				require.Equal(t, domain.KindQRPayment, plan.Records[0].Kind)
				require.Equal(t, "coffee", plan.Records[0].Description)
				require.Equal(t, "coffee", plan.Records[1].Metadata[domain.MetaQRNote])

				return committed(85_000)(ctx, plan)
			})
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2)

		_, err := s.PayQR(context.Background(), domain.PayQRParams{Actor: payer.Username, Payload: payload})
		require.NoError(t, err)
	})

	t.Run("AmountMismatch", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)

		res, err := s.PayQR(context.Background(), domain.PayQRParams{Actor: payer.Username, Payload: payload, Amount: "100"})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		require.Equal(t, domain.StateRejected, res.State)
	})

	t.Run("NoRecipient", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.PayQR(context.Background(), domain.PayQRParams{Actor: payer.Username, Payload: "petwallet://pay?name=x", Amount: "1"})
		require.ErrorIs(t, err, domain.ErrDestinationNotFound)
	})
}

func TestSettleSplit(t *testing.T) {
	creator := test.RandomWallet(0)
	participant := test.RandomWallet(100_000)
	split := test.RandomSplit(creator, 25_000, participant)

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)

		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(creator.Username)).Times(1).Return(creator, nil)
		m.accounts.EXPECT().GetWallet(gomock.Any(), gomock.Eq(participant.Username)).Times(1).Return(participant, nil)
		m.accounts.EXPECT().FindWalletByEmail(gomock.Any(), gomock.Eq(creator.Email)).Times(1).Return(creator, nil)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(1).
			DoAndReturn(func(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
				require.Equal(t, SplitKey(split.ID, participant.Username), plan.IdempotencyKey)
				require.Equal(t, domain.Money(25_000), plan.Amount)
				require.Equal(t, domain.WalletRef(creator.Username), *plan.Credit)
				require.Equal(t, &domain.SplitSettlement{
					SplitID:  split.ID,
					Username: participant.Username,
					RecordID: split.Participants[0].RecordID,
				}, plan.Split)
				require.Len(t, plan.Records, 1)
				require.Equal(t, participant.Username, plan.Records[0].Owner)
				require.Equal(t, domain.Money(-25_000), plan.Records[0].Amount)

				return committed(75_000)(ctx, plan)
			})
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2)

		res, err := s.SettleSplit(context.Background(), participant.Username, split)
		require.NoError(t, err)
		require.Equal(t, domain.KindSplitPayment, res.Kind)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		t.Parallel()

		s, m := newTestService(t, time.Second)
		m.repo.EXPECT().Apply(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.SettleSplit(context.Background(), creator.Username, split)
		require.ErrorIs(t, err, domain.ErrNotSplitParticipant)
	})
}
