package tables

// standardActions are the actions built into the installer engine.
// They may appear in sequence tables without a dialog or custom
// action of the same name.
var standardActions = map[string]struct{}{
	"ADMIN":                    {},
	"ADVERTISE":                {},
	"AllocateRegistrySpace":    {},
	"AppSearch":                {},
	"BindImage":                {},
	"CCPSearch":                {},
	"CostFinalize":             {},
	"CostInitialize":           {},
	"CreateFolders":            {},
	"CreateShortcuts":          {},
	"DeleteServices":           {},
	"DisableRollback":          {},
	"DuplicateFiles":           {},
	"ExecuteAction":            {},
	"FileCost":                 {},
	"FindRelatedProducts":      {},
	"ForceReboot":              {},
	"INSTALL":                  {},
	"InstallAdminPackage":      {},
	"InstallExecute":           {},
	"InstallExecuteAgain":      {},
	"InstallFiles":             {},
	"InstallFinalize":          {},
	"InstallInitialize":        {},
	"InstallODBC":              {},
	"InstallServices":          {},
	"InstallSFPCatalogFile":    {},
	"InstallValidate":          {},
	"IsolateComponents":        {},
	"LaunchConditions":         {},
	"MigrateFeatureStates":     {},
	"MoveFiles":                {},
	"MsiPublishAssemblies":     {},
	"MsiUnpublishAssemblies":   {},
	"PatchFiles":               {},
	"ProcessComponents":        {},
	"PublishComponents":        {},
	"PublishFeatures":          {},
	"PublishProduct":           {},
	"RMCCPSearch":              {},
	"RegisterClassInfo":        {},
	"RegisterComPlus":          {},
	"RegisterExtensionInfo":    {},
	"RegisterFonts":            {},
	"RegisterMIMEInfo":         {},
	"RegisterProduct":          {},
	"RegisterProgIdInfo":       {},
	"RegisterTypeLibraries":    {},
	"RegisterUser":             {},
	"RemoveDuplicateFiles":     {},
	"RemoveEnvironmentStrings": {},
	"RemoveExistingProducts":   {},
	"RemoveFiles":              {},
	"RemoveFolders":            {},
	"RemoveIniValues":          {},
	"RemoveODBC":               {},
	"RemoveRegistryValues":     {},
	"RemoveShortcuts":          {},
	"ResolveSource":            {},
	"ScheduleReboot":           {},
	"SelfRegModules":           {},
	"SelfUnregModules":         {},
	"SEQUENCE":                 {},
	"SetODBCFolders":           {},
	"StartServices":            {},
	"StopServices":             {},
	"UnpublishComponents":      {},
	"UnpublishFeatures":        {},
	"UnregisterClassInfo":      {},
	"UnregisterComPlus":        {},
	"UnregisterExtensionInfo":  {},
	"UnregisterFonts":          {},
	"UnregisterMIMEInfo":       {},
	"UnregisterProgIdInfo":     {},
	"UnregisterTypeLibraries":  {},
	"ValidateProductID":        {},
	"WriteEnvironmentStrings":  {},
	"WriteIniValues":           {},
	"WriteRegistryValues":      {},
}

func IsStandardAction(name string) bool {
	_, ok := standardActions[name]
	return ok
}
