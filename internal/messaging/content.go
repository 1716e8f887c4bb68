package messaging

import (
	"fmt"

	auth "github.com/fmitra/walletauth"
)

// ChallengeContent returns the message body delivering a challenge code.
func ChallengeContent(code string, purpose auth.ChallengePurpose) string {
	if purpose == auth.ChallengeRegistration {
		return fmt.Sprintf("Your sign up code is %s.", code)
	}
	return fmt.Sprintf("Your login code is %s. If you did not try to log in, change your password.", code)
}
