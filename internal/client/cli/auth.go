package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/frontnickson/toolrole-sub001/internal/common"
)

// getSimpleText, getPassword and friends are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
	getPairs      = GetPairs
	getYesNo      = GetYesNo
)

// Login prompts for an email and password and signs in. The password buffer
// is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeBytes(password)

	if err := a.authService.Login(ctx, email, string(password)); err != nil {
		return err
	}

	if u := a.state.CurrentUser(); u != nil {
		printlnFn("Signed in as " + u.Username)
		if u.Provisional {
			printlnFn("Your profile could not be loaded; some details may be missing.")
		}
	}
	return nil
}

// Logout signs out. It never fails: local state is cleared regardless of
// what the server or the local database say.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	printlnFn("Signed out.")
	return nil
}

// WhoAmI prints the signed-in user's profile.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.state.CurrentUser()
	if u == nil {
		return errSignedOut
	}

	rows := [][2]string{
		{"Username", u.Username},
		{"Email", u.Email},
		{"Name", strings.Join(strings.Fields(u.FirstName+" "+u.MiddleName+" "+u.LastName), " ")},
		{"Bio", u.Bio},
		{"Occupation", u.Occupation},
		{"Company", u.Company},
		{"Location", u.Location},
		{"Website", u.Website},
		{"Avatar", u.AvatarURL},
		{"Theme", u.Theme},
		{"Language", u.Language},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		printlnFn(profileRow(r[0], r[1]))
	}
	return nil
}

func profileRow(label, value string) string {
	return fmt.Sprintf("%-11s %s", label+":", value)
}
