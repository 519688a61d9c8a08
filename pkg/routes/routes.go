// Package routes holds the web-path inventory shared between the web app
// and the native shells, plus the path predicates the auth layer depends on.
package routes

import (
	"net/url"
	"regexp"
	"strings"
)

// Defaults for well-known paths.
const (
	// AppEntryPath is the authenticated entry point.
	AppEntryPath = "/mail/inbox"
	// LoginPath is the login surface.
	LoginPath = "/login"
	// HomePath is the public homepage.
	HomePath = "/home"
)

// authPrefixes are the path prefixes that require an authenticated session.
var authPrefixes = []string{"/mail", "/settings"}

// MailFolders lists the mail folder route segments.
var MailFolders = []string{"inbox", "sent", "drafts", "snoozed", "archive", "spam", "bin"}

// SettingsSections lists the settings route segments.
var SettingsSections = []string{
	"general", "appearance", "connections", "labels", "categories",
	"notifications", "privacy", "security", "shortcuts", "danger-zone",
}

// Mapping ties a web path to its native screen for parity tracking.
type Mapping struct {
	WebPath     string
	ScreenName  string
	Milestone   string
	Description string
}

// Inventory is the canonical web-path to native-screen mapping.
var Inventory = []Mapping{
	{WebPath: "/", ScreenName: "LandingScreen", Milestone: "M6", Description: "Landing screen"},
	{WebPath: "/home", ScreenName: "HomeScreen", Milestone: "M6", Description: "Public homepage"},
	{WebPath: "/login", ScreenName: "LoginScreen", Milestone: "M2", Description: "Auth login"},
	{WebPath: "/about", ScreenName: "AboutScreen", Milestone: "M6", Description: "Public about page"},
	{WebPath: "/terms", ScreenName: "TermsScreen", Milestone: "M6", Description: "Terms page"},
	{WebPath: "/pricing", ScreenName: "PricingScreen", Milestone: "M5", Description: "Pricing page"},
	{WebPath: "/privacy", ScreenName: "PrivacyScreen", Milestone: "M6", Description: "Privacy page"},
	{WebPath: "/contributors", ScreenName: "ContributorsScreen", Milestone: "M6", Description: "Contributors page"},
	{WebPath: "/hr", ScreenName: "HRScreen", Milestone: "M6", Description: "HR page"},
	{WebPath: "/developer", ScreenName: "DeveloperScreen", Milestone: "M6", Description: "Developer resources"},
	{WebPath: "/mail", ScreenName: "MailRedirectScreen", Milestone: "M1", Description: "Mail redirect"},
	{WebPath: "/mail/:folder", ScreenName: "MailFolderScreen", Milestone: "M3", Description: "Mail folder screen"},
	{WebPath: "/mail/compose", ScreenName: "ComposeScreen", Milestone: "M4", Description: "Compose modal/screen"},
	{WebPath: "/mail/create", ScreenName: "MailCreateRedirectScreen", Milestone: "M4", Description: "Legacy compose redirect"},
	{WebPath: "/mail/under-construction/:path", ScreenName: "UnderConstructionScreen", Milestone: "M4", Description: "Placeholder screen"},
	{WebPath: "/settings", ScreenName: "SettingsRedirectScreen", Milestone: "M5", Description: "Settings redirect"},
	{WebPath: "/settings/general", ScreenName: "SettingsGeneralScreen", Milestone: "M5", Description: "General settings"},
	{WebPath: "/settings/appearance", ScreenName: "SettingsAppearanceScreen", Milestone: "M5", Description: "Appearance settings"},
	{WebPath: "/settings/connections", ScreenName: "SettingsConnectionsScreen", Milestone: "M5", Description: "Connections settings"},
	{WebPath: "/settings/labels", ScreenName: "SettingsLabelsScreen", Milestone: "M5", Description: "Labels settings"},
	{WebPath: "/settings/categories", ScreenName: "SettingsCategoriesScreen", Milestone: "M5", Description: "Category settings"},
	{WebPath: "/settings/notifications", ScreenName: "SettingsNotificationsScreen", Milestone: "M5", Description: "Notification settings"},
	{WebPath: "/settings/privacy", ScreenName: "SettingsPrivacyScreen", Milestone: "M5", Description: "Privacy settings"},
	{WebPath: "/settings/security", ScreenName: "SettingsSecurityScreen", Milestone: "M5", Description: "Security settings"},
	{WebPath: "/settings/shortcuts", ScreenName: "SettingsShortcutsScreen", Milestone: "M5", Description: "Shortcuts settings"},
	{WebPath: "/settings/danger-zone", ScreenName: "SettingsDangerZoneScreen", Milestone: "M5", Description: "Danger zone settings"},
	{WebPath: "/settings/*", ScreenName: "SettingsFallbackScreen", Milestone: "M5", Description: "Settings fallback"},
	{WebPath: "/*", ScreenName: "NotFoundScreen", Milestone: "M1", Description: "Not found screen"},
}

// Normalize reduces a raw path or absolute URL to a rooted web path
// (path + query + fragment).
func Normalize(rawPath string) string {
	if rawPath == "" {
		return "/"
	}

	if u, err := url.Parse(rawPath); err == nil && u.IsAbs() {
		normalized := u.Path
		if u.RawQuery != "" {
			normalized += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			normalized += "#" + u.Fragment
		}
		if normalized == "" {
			return "/"
		}
		return normalized
	}

	if strings.HasPrefix(rawPath, "/") {
		return rawPath
	}
	return "/" + rawPath
}

// RequiresAuth reports whether a web path belongs to the authenticated area.
func RequiresAuth(path string) bool {
	normalized := Normalize(path)
	for _, prefix := range authPrefixes {
		if normalized == prefix || strings.HasPrefix(normalized, prefix+"/") {
			return true
		}
	}
	return false
}

// IsPublic reports whether a web path is outside the authenticated area.
func IsPublic(path string) bool {
	return !RequiresAuth(path)
}

var paramPattern = regexp.MustCompile(`:([a-zA-Z]+)`)

// ResolveInventoryPath substitutes route params into an inventory web path.
// Missing params resolve to "pending"; a trailing wildcard collapses to "/".
func ResolveInventoryPath(webPath string, params map[string]string) string {
	resolved := paramPattern.ReplaceAllStringFunc(webPath, func(match string) string {
		key := match[1:]
		if value, ok := params[key]; ok {
			return value
		}
		return "pending"
	})
	return strings.Replace(resolved, "/*", "/", 1)
}

// FindByScreen looks up an inventory entry by native screen name.
func FindByScreen(screenName string) (Mapping, bool) {
	for _, m := range Inventory {
		if m.ScreenName == screenName {
			return m, true
		}
	}
	return Mapping{}, false
}
