package conversation

import "fmt"

const (
	thanksText        = "🎉 Thank you very much for your answers! We appreciate your time and feedback."
	notRegisteredText = "❌ Sorry, your number is not in our records."
	outOfWorkflowText = "👋 Thank you for your message! If you would like to take part in our survey, please use the appropriate command."
	noQuestionsText   = "❌ Sorry, no questions are available at the moment."
	apologyText       = "❌ Sorry, something went wrong on our side. Please try again later."
)

func greetingText(firstName string) string {
	return fmt.Sprintf("👋 Hello %s,\n\nWe hope you are doing well! We would love to hear your opinion about our service.", firstName)
}

func surveyLinkText(link string) string {
	return fmt.Sprintf("📝 Thank you! Here is the link to our survey:\n\n%s\n\nIt only takes a few minutes.", link)
}

func introText(total int) string {
	return fmt.Sprintf("📋 We are going to ask you %d short questions.\n\nSimply reply to each question with a message.", total)
}

// questionText numbers questions from 1.
func questionText(index, total int, text string) string {
	return fmt.Sprintf("Question %d/%d: %s", index+1, total, text)
}
