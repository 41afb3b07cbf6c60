package splitdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/test"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/go-petr/pet-wallet/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if err := transferdelivery.RegisterValidators(); err != nil {
		fmt.Fprintf(os.Stderr, "RegisterValidators() returned error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func setupServer(t *testing.T, service Service) (*gin.Engine, tokenpkg.Maker) {
	t.Helper()

	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	h := NewHandler(service)

	server := gin.New()
	auth := server.Group("/splits").Use(middleware.AuthMiddleware(maker))
	auth.POST("", h.Create)
	auth.GET("", h.List)
	auth.GET("/:id", h.Get)
	auth.POST("/:id/settle", h.Settle)
	auth.POST("/:id/decline", h.Decline)

	return server, maker
}

func do(t *testing.T, server *gin.Engine, maker tokenpkg.Maker, method, url, username string, body any) (int, web.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(req, maker, middleware.AuthTypeBearer, username, time.Minute))

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	var res web.Response
	res.Data = &json.RawMessage{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return recorder.Code, res
}

func TestCreate(t *testing.T) {
	creator := test.RandomWallet(domain.Money(500_000))
	alice := test.RandomWallet(domain.Money(0))
	bob := test.RandomWallet(domain.Money(0))
	split := test.RandomSplit(creator, domain.Money(15_000), alice, bob)

	validBody := gin.H{
		"title":        "Dinner",
		"description":  "Friday",
		"total_amount": "300.00",
		"participants": []gin.H{
			{"email": alice.Email, "amount": "150.00"},
			{"email": bob.Email, "amount": "150.00"},
		},
	}

	testCases := []struct {
		name           string
		body           any
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
		wantReasonCode string
	}{
		{
			name: "Created",
			body: validBody,
			buildStubs: func(s *MockService) {
				want := domain.CreateSplitRequest{
					Title:       "Dinner",
					Description: "Friday",
					TotalAmount: "300.00",
					Participants: []domain.SplitShareRequest{
						{Email: alice.Email, Amount: "150.00"},
						{Email: bob.Email, Amount: "150.00"},
					},
				}
				s.EXPECT().Create(gomock.Any(), gomock.Eq(creator.Username), gomock.Eq(want)).Times(1).Return(split, nil)
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "NoParticipants",
			body: gin.H{"title": "Dinner", "total_amount": "300.00", "participants": []gin.H{}},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Participants must be at least 1",
			wantReasonCode: string(domain.ReasonSplitInvalid),
		},
		{
			name: "InvalidShareAmount",
			body: gin.H{
				"title":        "Dinner",
				"total_amount": "300.00",
				"participants": []gin.H{{"email": alice.Email, "amount": "1.001"}},
			},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimals",
			wantReasonCode: string(domain.ReasonInvalidAmount),
		},
		{
			name: "SharesMismatch",
			body: validBody,
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.Split{}, domain.ErrSplitSharesMismatch)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSplitSharesMismatch.Error(),
			wantReasonCode: string(domain.ReasonSplitInvalid),
		},
		{
			name: "ParticipantNotFound",
			body: validBody,
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.Split{}, domain.ErrSplitParticipantNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrSplitParticipantNotFound.Error(),
			wantReasonCode: string(domain.ReasonSplitParticipantNotFound),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, maker := setupServer(t, service)

			code, res := do(t, server, maker, http.MethodPost, "/splits", creator.Username, tc.body)
			require.Equal(t, tc.wantStatusCode, code)
			require.Equal(t, tc.wantError, res.Error)
			require.Equal(t, tc.wantReasonCode, res.ReasonCode)

			if code == http.StatusCreated {
				var got splitData
				require.NoError(t, json.Unmarshal(*res.Data.(*json.RawMessage), &got))
				if diff := cmp.Diff(split, got.Split); diff != "" {
					t.Errorf("split mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	owner := randompkg.Owner()

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	service.EXPECT().List(gomock.Any(), gomock.Eq(owner), gomock.Eq(int32(10))).Times(1).Return(nil, nil)

	server, maker := setupServer(t, service)

	code, res := do(t, server, maker, http.MethodGet, "/splits?limit=10", owner, nil)
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"splits":[]}`, string(*res.Data.(*json.RawMessage)))

	code, res = do(t, server, maker, http.MethodGet, "/splits?limit=101", owner, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Limit must be at most 100", res.Error)
}

func TestGet(t *testing.T) {
	t.Parallel()

	creator := test.RandomWallet(domain.Money(0))
	alice := test.RandomWallet(domain.Money(0))
	split := test.RandomSplit(creator, domain.Money(1_000), alice)

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	service.EXPECT().Get(gomock.Any(), gomock.Eq(alice.Username), gomock.Eq(split.ID)).Times(1).Return(split, nil)
	service.EXPECT().Get(gomock.Any(), gomock.Eq("mallory"), gomock.Eq(split.ID)).Times(1).
		Return(domain.Split{}, domain.ErrSplitNotFound)

	server, maker := setupServer(t, service)
	url := fmt.Sprintf("/splits/%d", split.ID)

	code, _ := do(t, server, maker, http.MethodGet, url, alice.Username, nil)
	require.Equal(t, http.StatusOK, code)

	code, res := do(t, server, maker, http.MethodGet, url, "mallory", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, string(domain.ReasonSplitNotFound), res.ReasonCode)

	code, _ = do(t, server, maker, http.MethodGet, "/splits/abc", alice.Username, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestSettle(t *testing.T) {
	creator := test.RandomWallet(domain.Money(0))
	alice := test.RandomWallet(domain.Money(10_000))
	split := test.RandomSplit(creator, domain.Money(1_000), alice)
	url := fmt.Sprintf("/splits/%d/settle", split.ID)

	rec := test.RandomRecord(alice.Username)
	rec.Amount = -split.Participants[0].Share
	rec.Kind = domain.KindSplitPayment
	result := domain.TransferResult{
		TransferID: uuid.New(),
		State:      domain.StateCommitted,
		Kind:       domain.KindSplitPayment,
		NewBalance: alice.Balance - split.Participants[0].Share,
		Records:    []domain.Record{rec},
	}

	testCases := []struct {
		name           string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantReasonCode string
		wantUnknown    bool
	}{
		{
			name: "OK",
			buildStubs: func(s *MockService) {
				s.EXPECT().Settle(gomock.Any(), gomock.Eq(alice.Username), gomock.Eq(split.ID)).Times(1).Return(result, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "NotParticipant",
			buildStubs: func(s *MockService) {
				s.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, domain.ErrNotSplitParticipant)
			},
			wantStatusCode: http.StatusForbidden,
			wantReasonCode: string(domain.ReasonSplitNotParticipant),
		},
		{
			name: "AlreadySettled",
			buildStubs: func(s *MockService) {
				s.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, domain.ErrSplitAlreadySettled)
			},
			wantStatusCode: http.StatusConflict,
			wantReasonCode: string(domain.ReasonSplitAlreadySettled),
		},
		{
			name: "InsufficientFunds",
			buildStubs: func(s *MockService) {
				s.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, domain.ErrInsufficientFunds)
			},
			wantStatusCode: http.StatusConflict,
			wantReasonCode: string(domain.ReasonInsufficientFunds),
		},
		{
			name: "OutcomeUnknown",
			buildStubs: func(s *MockService) {
				s.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).
					Return(domain.TransferResult{}, domain.ErrOutcomeUnknown)
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantReasonCode: string(domain.ReasonStorageFault),
			wantUnknown:    true,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, maker := setupServer(t, service)

			code, res := do(t, server, maker, http.MethodPost, url, alice.Username, nil)
			require.Equal(t, tc.wantStatusCode, code)
			require.Equal(t, tc.wantReasonCode, res.ReasonCode)
			require.Equal(t, tc.wantUnknown, res.OutcomeUnknown)

			if code == http.StatusOK {
				var got settleData
				require.NoError(t, json.Unmarshal(*res.Data.(*json.RawMessage), &got))
				require.Equal(t, result.TransferID, got.Transfer.TransferID)
				require.Equal(t, result.NewBalance, got.Transfer.NewBalance)
			}
		})
	}
}

func TestDecline(t *testing.T) {
	t.Parallel()

	creator := test.RandomWallet(domain.Money(0))
	alice := test.RandomWallet(domain.Money(0))
	split := test.RandomSplit(creator, domain.Money(1_000), alice)

	declined := split
	declined.Status = domain.SplitFailed

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	gomock.InOrder(
		service.EXPECT().Decline(gomock.Any(), gomock.Eq(alice.Username), gomock.Eq(split.ID)).Times(1).Return(declined, nil),
		service.EXPECT().Decline(gomock.Any(), gomock.Eq(alice.Username), gomock.Eq(split.ID)).Times(1).
			Return(domain.Split{}, domain.ErrSplitAlreadySettled),
	)

	server, maker := setupServer(t, service)
	url := fmt.Sprintf("/splits/%d/decline", split.ID)

	code, res := do(t, server, maker, http.MethodPost, url, alice.Username, nil)
	require.Equal(t, http.StatusOK, code)

	var got splitData
	require.NoError(t, json.Unmarshal(*res.Data.(*json.RawMessage), &got))
	require.Equal(t, domain.SplitFailed, got.Split.Status)

	code, res = do(t, server, maker, http.MethodPost, url, alice.Username, nil)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, domain.ErrSplitAlreadySettled.Error(), res.Error)
}
