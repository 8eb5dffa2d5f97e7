package cmd

import (
	"fmt"

	"github.com/example/section-sniper/internal/config"
	"github.com/example/section-sniper/internal/enrollment"
)

const passwordEnv = "SNIPER_PASSWORD"

// credentialsFromArgs builds credentials from positional args. A password of "-" is
// read from SNIPER_PASSWORD or the file named by SNIPER_PASSWORD_FILE.
func credentialsFromArgs(userID, password string, logoutOthers bool) (enrollment.Credentials, error) {
	if password == "-" {
		v, err := config.ResolveSecret(passwordEnv)
		if err != nil {
			return enrollment.Credentials{}, err
		}
		if v == "" {
			return enrollment.Credentials{}, fmt.Errorf("password is \"-\" but %s and %s_FILE are empty", passwordEnv, passwordEnv)
		}
		password = v
	}
	return enrollment.Credentials{UserID: userID, Password: password, LogoutOtherSessions: logoutOthers}, nil
}
