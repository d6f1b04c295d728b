package tracker

import "strings"

// helpMessage builds the DM help text from the command table so it can
// never drift from what's actually dispatchable.
func (r *Router) helpMessage() string {
	var b strings.Builder
	b.WriteString("Hey, I'm CryptoBot! I track the activity of certain channels in cryptocurrency servers!\n")
	b.WriteString("List of commands:\n")

	for _, cmd := range r.commands {
		b.WriteString(r.prefix + cmd.Trigger)
		if cmd.Trigger == "add" || cmd.Trigger == "remove" {
			b.WriteString(" <channel list>")
		} else if cmd.Trigger == "user-stats" {
			b.WriteString(" <userID>")
		}
		b.WriteString(": " + cmd.Description)
		if cmd.RequireAdmin {
			b.WriteString(" (Usable by administrators only)")
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
