// Package checkout drives one shopper through address selection, payment
// review and order confirmation.
package checkout

import (
	"errors"

	"github.com/wichananm65/storefront/internal/payment"
)

type Step string

const (
	StepCheckout     Step = "checkout"
	StepReview       Step = "review"
	StepConfirmation Step = "confirmation"
)

var (
	ErrAddressRequired = errors.New("select a shipping address to continue")
	ErrCartRequired    = errors.New("cart_id is required")
	ErrInvalidStep     = errors.New("action not allowed at this checkout step")
	ErrNoSession       = errors.New("no checkout in progress")
)

// Session is the checkout state of one user. Moves go checkout -> review ->
// confirmation, with Back returning from review to checkout.
type Session struct {
	UserID            string `json:"-"`
	Step              Step   `json:"step"`
	CartID            string `json:"cart_id"`
	SelectedAddressID string `json:"selected_address_id,omitempty"`
	PaymentIntentID   string `json:"payment_intent_id,omitempty"`
	ClientSecret      string `json:"client_secret,omitempty"`
	DpmCheckerLink    string `json:"dpm_checker_link,omitempty"`
	PaymentError      string `json:"payment_error,omitempty"`
}

func NewSession(userID, cartID string) *Session {
	return &Session{UserID: userID, Step: StepCheckout, CartID: cartID}
}

func (s *Session) SelectAddress(id string) error {
	if s.Step != StepCheckout {
		return ErrInvalidStep
	}
	if id == "" {
		return ErrAddressRequired
	}
	s.SelectedAddressID = id
	return nil
}

// CanAdvance reports whether the session may move on to review.
func (s *Session) CanAdvance() error {
	if s.Step != StepCheckout {
		return ErrInvalidStep
	}
	if s.SelectedAddressID == "" {
		return ErrAddressRequired
	}
	return nil
}

// EnterReview moves to review with the intent the payment form will confirm.
func (s *Session) EnterReview(in payment.Intent) error {
	if err := s.CanAdvance(); err != nil {
		return err
	}
	s.Step = StepReview
	s.PaymentIntentID = in.ID
	s.ClientSecret = in.ClientSecret
	s.DpmCheckerLink = in.DpmCheckerLink
	s.PaymentError = ""
	return nil
}

func (s *Session) Back() error {
	if s.Step != StepReview {
		return ErrInvalidStep
	}
	s.Step = StepCheckout
	s.PaymentError = ""
	return nil
}

// FailPayment keeps the session on review with msg shown to the shopper.
func (s *Session) FailPayment(msg string) error {
	if s.Step != StepReview {
		return ErrInvalidStep
	}
	s.PaymentError = msg
	return nil
}

// Confirm finishes the payment step.
func (s *Session) Confirm(intentID string) error {
	if s.Step != StepReview {
		return ErrInvalidStep
	}
	if intentID != "" {
		s.PaymentIntentID = intentID
	}
	s.Step = StepConfirmation
	s.PaymentError = ""
	return nil
}
