package packagekit

import "github.com/kolide/livraison/pkg/msi/tables"

// executeSequence is the same for every package built here: no custom
// actions, no conditions besides skipping registry allocation on
// maintenance runs.
func executeSequence() []tables.InstallExecuteSequence {
	entries := []tables.SequenceEntry{
		tables.Seq("ValidateProductID", 700),
		tables.Seq("CostInitialize", 800),
		tables.Seq("FileCost", 900),
		tables.Seq("CostFinalize", 1000),
		tables.Seq("SetODBCFolders", 1100),
		tables.Seq("InstallValidate", 1400),
		tables.Seq("InstallInitialize", 1500),
		tables.SeqIf("AllocateRegistrySpace", "NOT Installed", 1550),
		tables.Seq("ProcessComponents", 1600),
		tables.Seq("UnpublishComponents", 1700),
		tables.Seq("UnpublishFeatures", 1800),
		tables.Seq("UnregisterComPlus", 2100),
		tables.Seq("RemoveEnvironmentStrings", 3300),
		tables.Seq("RemoveFiles", 3500),
		tables.Seq("RemoveFolders", 3600),
		tables.Seq("CreateFolders", 3700),
		tables.Seq("MoveFiles", 3800),
		tables.Seq("InstallFiles", 4000),
		tables.Seq("WriteEnvironmentStrings", 5200),
		tables.Seq("RegisterComPlus", 5700),
		tables.Seq("RegisterUser", 6000),
		tables.Seq("RegisterProduct", 6100),
		tables.Seq("PublishComponents", 6200),
		tables.Seq("PublishFeatures", 6300),
		tables.Seq("PublishProduct", 6400),
		tables.Seq("InstallFinalize", 6600),
	}

	seq := make([]tables.InstallExecuteSequence, len(entries))
	for i, e := range entries {
		seq[i] = tables.InstallExecuteSequence{SequenceEntry: e}
	}
	return seq
}
