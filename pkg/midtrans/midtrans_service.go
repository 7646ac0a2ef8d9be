package midtrans

import (
	"context"
	"errors"
	"nutriscan/domain"
	"nutriscan/entities"
	"nutriscan/internal/utils"
	"nutriscan/pkg/user"

	"github.com/google/uuid"
	midtransgo "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
)

type (
	MidtransService interface {
		CreateTransaction(ctx context.Context, req domain.MidtransPaymentRequest, userID string) (domain.MidtransPaymentResponse, error)
		HandleNotification(ctx context.Context, notification map[string]any) error
	}

	midtransService struct {
		midtransRepository MidtransRepository
		userRepository     user.UserRepository
		client             snap.Client
	}
)

func NewMidtransService(midtransRepository MidtransRepository, userRepository user.UserRepository) MidtransService {
	env := midtransgo.Sandbox
	if utils.GetConfig("IsProd") == "true" {
		env = midtransgo.Production
	}

	var client snap.Client
	client.New(utils.GetConfig("SERVER_KEY"), env)

	return &midtransService{
		midtransRepository: midtransRepository,
		userRepository:     userRepository,
		client:             client,
	}
}

func (s *midtransService) CreateTransaction(ctx context.Context, req domain.MidtransPaymentRequest, userID string) (domain.MidtransPaymentResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.MidtransPaymentResponse{}, domain.ErrParseUUID
	}

	orderID := uuid.New().String()
	snapReq := &snap.Request{
		TransactionDetails: midtransgo.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: domain.PremiumPrice,
		},
		CustomerDetail: &midtransgo.CustomerDetails{
			Email: req.Email,
		},
	}

	snapResp, midErr := s.client.CreateTransaction(snapReq)
	if midErr != nil {
		return domain.MidtransPaymentResponse{}, domain.ErrPaymentFailed
	}

	transaction := &entities.Transaction{
		ID:      uuid.New(),
		UserID:  userUUID,
		OrderID: orderID,
		Amount:  domain.PremiumPrice,
		Status:  "Pending",
	}
	if err := s.midtransRepository.CreateTransaction(ctx, transaction); err != nil {
		return domain.MidtransPaymentResponse{}, err
	}

	return domain.MidtransPaymentResponse{
		OrderID:     orderID,
		Token:       snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

func (s *midtransService) HandleNotification(ctx context.Context, notification map[string]any) error {
	orderID, _ := notification["order_id"].(string)
	status, _ := notification["transaction_status"].(string)
	if orderID == "" || status == "" {
		return domain.ErrTransactionNotFound
	}

	transaction, err := s.midtransRepository.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTransactionNotFound
		}
		return err
	}

	switch status {
	case "settlement", "capture":
		transaction.Status = "Settlement"
	case "deny", "cancel", "expire":
		transaction.Status = "Failed"
	default:
		return nil
	}

	if err := s.midtransRepository.UpdateTransaction(ctx, transaction); err != nil {
		return err
	}

	if transaction.Status != "Settlement" {
		return nil
	}

	owner, err := s.userRepository.GetUserByID(ctx, transaction.UserID.String())
	if err != nil {
		return err
	}
	owner.IsPremium = true
	return s.userRepository.UpdateUser(ctx, owner)
}
