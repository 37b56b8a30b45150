package model

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Module variable names. They are the persisted keys of ModuleConfig.
const (
	VarDefaultForm              = "defaultForm"
	VarShowCompany              = "showCompany"
	VarShowPhone                = "showPhone"
	VarShowURL                  = "showUrl"
	VarShowLocation             = "showLocation"
	VarShowComment              = "showComment"
	VarShowFileAttachment       = "showFileAttachment"
	VarUploadDirectory          = "uploadDirectory"
	VarDeleteUploadedFiles      = "deleteUploadedFiles"
	VarSendConfirmationToUser   = "sendConfirmationToUser"
	VarDefaultAdminFormat       = "defaultAdminFormat"
	VarDefaultUserFormat        = "defaultUserFormat"
	VarShowUserFormat           = "showUserFormat"
	VarUseContactsAsSender      = "useContactsAsSender"
	VarEnableSpamCheck          = "enableSpamCheck"
	VarExcludeSpamCheck         = "excludeSpamCheck"
	VarStoreSubmissionData      = "storeSubmissionData"
	VarStoreSubmissionDataForms = "storeSubmissionDataForms"
)

// DefaultUploadDirectory is the upload directory written at install and by
// the 5.0.1 upgrade step.
const DefaultUploadDirectory = "public/formicula/uploads"

// Mail formats.
const (
	FormatHTML  = "html"
	FormatPlain = "plain"
)

// ModuleConfig is the typed form of the module variables.
type ModuleConfig struct {
	DefaultForm  int
	ShowCompany  bool
	ShowPhone    bool
	ShowURL      bool
	ShowLocation bool
	ShowComment  bool

	ShowFileAttachment  bool
	UploadDirectory     string
	DeleteUploadedFiles bool

	SendConfirmationToUser bool
	DefaultAdminFormat     string
	DefaultUserFormat      string
	ShowUserFormat         bool
	UseContactsAsSender    bool

	EnableSpamCheck          bool
	ExcludeSpamCheck         string
	StoreSubmissionData      bool
	StoreSubmissionDataForms string
}

// DefaultModuleConfig returns the values written at install time.
func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		DefaultForm:  0,
		ShowCompany:  true,
		ShowPhone:    true,
		ShowURL:      true,
		ShowLocation: true,
		ShowComment:  true,

		ShowFileAttachment:  false,
		UploadDirectory:     DefaultUploadDirectory,
		DeleteUploadedFiles: true,

		SendConfirmationToUser: true,
		DefaultAdminFormat:     FormatHTML,
		DefaultUserFormat:      FormatHTML,
		ShowUserFormat:         true,
		UseContactsAsSender:    true,

		EnableSpamCheck:          true,
		ExcludeSpamCheck:         "",
		StoreSubmissionData:      false,
		StoreSubmissionDataForms: "",
	}
}

// Vars converts the config to its persisted key/value form.
func (c ModuleConfig) Vars() map[string]string {
	b := strconv.FormatBool
	return map[string]string{
		VarDefaultForm:              strconv.Itoa(c.DefaultForm),
		VarShowCompany:              b(c.ShowCompany),
		VarShowPhone:                b(c.ShowPhone),
		VarShowURL:                  b(c.ShowURL),
		VarShowLocation:             b(c.ShowLocation),
		VarShowComment:              b(c.ShowComment),
		VarShowFileAttachment:       b(c.ShowFileAttachment),
		VarUploadDirectory:          c.UploadDirectory,
		VarDeleteUploadedFiles:      b(c.DeleteUploadedFiles),
		VarSendConfirmationToUser:   b(c.SendConfirmationToUser),
		VarDefaultAdminFormat:       c.DefaultAdminFormat,
		VarDefaultUserFormat:        c.DefaultUserFormat,
		VarShowUserFormat:           b(c.ShowUserFormat),
		VarUseContactsAsSender:      b(c.UseContactsAsSender),
		VarEnableSpamCheck:          b(c.EnableSpamCheck),
		VarExcludeSpamCheck:         c.ExcludeSpamCheck,
		VarStoreSubmissionData:      b(c.StoreSubmissionData),
		VarStoreSubmissionDataForms: c.StoreSubmissionDataForms,
	}
}

// ModuleConfigFromVars builds a config from stored module variables. Missing
// or malformed values keep their defaults.
func ModuleConfigFromVars(vars map[string]string) ModuleConfig {
	c := DefaultModuleConfig()

	boolVar := func(name string, dst *bool) {
		if v, ok := vars[name]; ok {
			if parsed, err := cast.ToBoolE(v); err == nil {
				*dst = parsed
			}
		}
	}
	stringVar := func(name string, dst *string) {
		if v, ok := vars[name]; ok {
			*dst = v
		}
	}

	if v, ok := vars[VarDefaultForm]; ok {
		if n, err := cast.ToIntE(v); err == nil && n >= 0 {
			c.DefaultForm = n
		}
	}
	boolVar(VarShowCompany, &c.ShowCompany)
	boolVar(VarShowPhone, &c.ShowPhone)
	boolVar(VarShowURL, &c.ShowURL)
	boolVar(VarShowLocation, &c.ShowLocation)
	boolVar(VarShowComment, &c.ShowComment)
	boolVar(VarShowFileAttachment, &c.ShowFileAttachment)
	stringVar(VarUploadDirectory, &c.UploadDirectory)
	boolVar(VarDeleteUploadedFiles, &c.DeleteUploadedFiles)
	boolVar(VarSendConfirmationToUser, &c.SendConfirmationToUser)
	stringVar(VarDefaultAdminFormat, &c.DefaultAdminFormat)
	stringVar(VarDefaultUserFormat, &c.DefaultUserFormat)
	boolVar(VarShowUserFormat, &c.ShowUserFormat)
	boolVar(VarUseContactsAsSender, &c.UseContactsAsSender)
	boolVar(VarEnableSpamCheck, &c.EnableSpamCheck)
	stringVar(VarExcludeSpamCheck, &c.ExcludeSpamCheck)
	boolVar(VarStoreSubmissionData, &c.StoreSubmissionData)
	stringVar(VarStoreSubmissionDataForms, &c.StoreSubmissionDataForms)

	return c
}

var whitespace = regexp.MustCompile(`\s+`)

// StripWhitespace removes every whitespace character, used for the comma
// separated form lists.
func StripWhitespace(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

// Normalize returns the config with its CSV lists stripped of whitespace.
func (c ModuleConfig) Normalize() ModuleConfig {
	c.ExcludeSpamCheck = StripWhitespace(c.ExcludeSpamCheck)
	c.StoreSubmissionDataForms = StripWhitespace(c.StoreSubmissionDataForms)
	return c
}

// SpamCheckRequired reports whether a captcha must be solved for the form.
func (c ModuleConfig) SpamCheckRequired(form int) bool {
	if !c.EnableSpamCheck {
		return false
	}
	return !csvContains(c.ExcludeSpamCheck, form)
}

// StoresSubmissionsFor reports whether submissions of the form are archived.
// An empty form list archives every form.
func (c ModuleConfig) StoresSubmissionsFor(form int) bool {
	if !c.StoreSubmissionData {
		return false
	}
	if strings.TrimSpace(c.StoreSubmissionDataForms) == "" {
		return true
	}
	return csvContains(c.StoreSubmissionDataForms, form)
}

func csvContains(list string, form int) bool {
	for _, item := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err == nil && n == form {
			return true
		}
	}
	return false
}
