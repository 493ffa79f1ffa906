package ui

// Minimal is the default wizard: a welcome or remove screen, a
// progress screen and the exit screens.
func Minimal() UI {
	return UI{
		Dialogs: []*Dialog{
			welcomeDialog(),
			removeDialog(),
			progressDialog(),
			exitDialog(),
			fatalErrorDialog(),
		},
		TextStyles: DefaultTextStyles(),
	}
}

func welcomeDialog() *Dialog {
	return NewDialog(WelcomeDialog).
		Size(MinimalWidth, MinimalHeight).
		Add(
			Text("Title", `{\TitleFont}Welcome to the [ProductName] installer`).At(20, 10).Size(220, 20),
			Text("Description", "This will install [ProductName] on your computer. Click Install to continue or Cancel to exit the installer.").
				At(20, 35).Size(220, 30),
			Button("Next", "Install").At(66, 75).Trigger(EndDialogEvent(Return)),
			Button(cancelControl, "Cancel").At(134, 75).Trigger(EndDialogEvent(Exit)),
		)
}

func removeDialog() *Dialog {
	return NewDialog(RemoveDialog).
		Size(MinimalWidth, MinimalHeight).
		Add(
			Text("Title", `{\TitleFont}Uninstall [ProductName]`).At(20, 10).Size(220, 20),
			Text("Description", "This will remove [ProductName] from your computer. Click Remove to continue or Cancel to exit the uninstaller.").
				At(20, 35).Size(220, 30),
			Button("Remove", "Remove").At(66, 75).
				Trigger(SetPropertyEvent("REMOVE", "ALL")).
				Trigger(SetPropertyEvent("Mode", "Remove")).
				Trigger(SetPropertyEvent("Text_action", "removal")).
				Trigger(SetPropertyEvent("Text_agent", "uninstaller")).
				Trigger(SetPropertyEvent("Text_Doing", "removing")).
				Trigger(SetPropertyEvent("Text_done", "removed")).
				Trigger(EndDialogEvent(Return)),
			Button(cancelControl, "Cancel").At(134, 75).Trigger(EndDialogEvent(Exit)),
		)
}

func progressDialog() *Dialog {
	return NewDialog(ProgressDialog).
		Modeless().
		Add(
			Text("Title", `{\TitleFont}[ProductName] is being [Text_done]`).At(20, 15).Size(330, 15),
			Text("Text", "Please wait while the [Text_agent] is [Text_Doing] [ProductName]. This may take several minutes.").
				At(35, 65).Size(300, 20),
			Line("BannerLine").At(0, 44).Size(374, 0),
			Text("StatusLabel", "Status:").At(35, 100).Size(35, 10),
			DynText("ActionText", "ActionText").At(70, 100).Size(265, 10),
			ProgressBar("ProgressBar").At(35, 115).Size(300, 10),
			Line("BottomLine").At(0, 234).Size(374, 0),
			Button("Next", "Next").At(236, 243).Disable(),
			Button(cancelControl, "Cancel").At(304, 243).Trigger(EndDialogEvent(Exit)),
		)
}

func exitDialog() *Dialog {
	return NewDialog(ExitDialog).
		Size(MinimalWidth, MinimalHeight).
		Add(
			Text("Title", `{\TitleFont}[ProductName] [Text_action] complete`).At(20, 10).Size(220, 20),
			Text("Description", "Click the Finish button to exit the [Text_agent].").At(20, 35).Size(220, 30),
			Button("Finish", "Finish").At(102, 75).Trigger(EndDialogEvent(Return)),
		)
}

func fatalErrorDialog() *Dialog {
	return NewDialog(FatalErrorDialog).
		Add(
			Text("Title", `{\TitleFont}[ProductName] [Text_agent] ended prematurely`).At(20, 15).Size(330, 15),
			Text("Description1", "[ProductName] [Text_agent] ended prematurely because of an error. Your system has not been modified.").
				At(20, 50).Size(330, 40),
			Line("BottomLine").At(0, 234).Size(374, 0),
			Button("Finish", "Finish").At(304, 243).Trigger(EndDialogEvent(Exit)),
		)
}
