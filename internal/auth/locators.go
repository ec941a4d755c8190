package auth

import "github.com/sitesnap/sitesnap/internal/browser"

// usernameLocators returns the username field strategies in preference
// order. field is tried first by name and id, then the generic
// fallbacks.
func usernameLocators(field string) []browser.Locator {
	return []browser.Locator{
		{By: browser.ByName, Value: field},
		{By: browser.ByID, Value: field},
		{By: browser.ByID, Value: "username"},
		{By: browser.ByID, Value: "email"},
		{By: browser.ByName, Value: "email"},
		{By: browser.ByCSS, Value: `input[type="text"]`},
		{By: browser.ByCSS, Value: `input[type="email"]`},
		{By: browser.ByPlaceholder, Value: "Username"},
		{By: browser.ByPlaceholder, Value: "Email"},
		{By: browser.ByPlaceholder, Value: "username"},
		{By: browser.ByPlaceholder, Value: "email"},
	}
}

func passwordLocators(field string) []browser.Locator {
	return []browser.Locator{
		{By: browser.ByName, Value: field},
		{By: browser.ByID, Value: field},
		{By: browser.ByID, Value: "password"},
		{By: browser.ByName, Value: "password"},
		{By: browser.ByCSS, Value: `input[type="password"]`},
		{By: browser.ByPlaceholder, Value: "Password"},
		{By: browser.ByPlaceholder, Value: "password"},
	}
}

func codeLocators(field string) []browser.Locator {
	return []browser.Locator{
		{By: browser.ByName, Value: field},
		{By: browser.ByID, Value: field},
		{By: browser.ByName, Value: "totp"},
		{By: browser.ByName, Value: "code"},
		{By: browser.ByName, Value: "token"},
		{By: browser.ByName, Value: "authenticator_code"},
		{By: browser.ByName, Value: "verification_code"},
		{By: browser.ByID, Value: "totp"},
		{By: browser.ByID, Value: "code"},
		{By: browser.ByID, Value: "token"},
		{By: browser.ByPlaceholder, Value: "Code"},
		{By: browser.ByPlaceholder, Value: "TOTP"},
		{By: browser.ByPlaceholder, Value: "Authentication Code"},
	}
}

// submitLocators returns the submit button strategies. verify adds the
// "Verify" label used on second-factor forms.
func submitLocators(selector string, verify bool) []browser.Locator {
	locs := []browser.Locator{
		{By: browser.ByCSS, Value: selector},
		{By: browser.ByCSS, Value: `input[type="submit"]`},
		{By: browser.ByCSS, Value: `button[type="submit"]`},
		{By: browser.ByButtonText, Value: "Login"},
		{By: browser.ByButtonText, Value: "Sign in"},
		{By: browser.ByButtonText, Value: "Submit"},
	}
	if verify {
		locs = append(locs, browser.Locator{By: browser.ByButtonText, Value: "Verify"})
	}
	locs = append(locs,
		browser.Locator{By: browser.ByInputValue, Value: "Login"},
		browser.Locator{By: browser.ByInputValue, Value: "Sign in"},
		browser.Locator{By: browser.ByInputValue, Value: "Submit"},
	)
	if verify {
		locs = append(locs, browser.Locator{By: browser.ByInputValue, Value: "Verify"})
	}
	return locs
}
