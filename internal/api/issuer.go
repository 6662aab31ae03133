package api

import "context"

// CredentialIssuer abstracts the two onboarding flows the backend offers:
// phone+PIN and phone+OTP. Begin starts the flow for a phone number and
// Issue exchanges the user's secret (PIN or one-time code) for tokens.
type CredentialIssuer interface {
	Begin(ctx context.Context, phone string) (*OnboardingStatus, error)
	Issue(ctx context.Context, phone, secret, name string) (*AuthResult, error)
}

// PinIssuer is the phone+PIN flow. Issue registers when name is non-empty
// and logs in otherwise, mirroring how Begin's status drives the screens.
type PinIssuer struct {
	Client *Client
}

func (p *PinIssuer) Begin(ctx context.Context, phone string) (*OnboardingStatus, error) {
	return p.Client.CheckStatus(ctx, phone)
}

func (p *PinIssuer) Issue(ctx context.Context, phone, secret, name string) (*AuthResult, error) {
	if name != "" {
		return p.Client.Register(ctx, phone, secret, name)
	}
	return p.Client.LoginPIN(ctx, phone, secret)
}

// OTPIssuer is the phone+OTP flow. Begin sends the code; a fresh code
// works for new and existing users alike, so the status is always
// "exists".
type OTPIssuer struct {
	Client *Client
}

func (o *OTPIssuer) Begin(ctx context.Context, phone string) (*OnboardingStatus, error) {
	if err := o.Client.SendOTP(ctx, phone); err != nil {
		return nil, err
	}
	return &OnboardingStatus{Exists: true, PinSet: true}, nil
}

func (o *OTPIssuer) Issue(ctx context.Context, phone, secret, _ string) (*AuthResult, error) {
	return o.Client.VerifyOTP(ctx, phone, secret)
}
