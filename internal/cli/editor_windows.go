package cli

func defaultEditor() string { return "notepad" }
