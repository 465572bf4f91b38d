package conversation

import (
	"github.com/looplab/fsm"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

const (
	eventOfferSurvey = "offer_survey"
	eventStartQandA  = "start_qanda"
)

// Closing a conversation removes its record, so there is no terminal
// phase in the machine itself.
var phaseEvents = fsm.Events{
	{
		Name: eventOfferSurvey,
		Src:  []string{string(domain.PhaseAwaitingInitialResponse)},
		Dst:  string(domain.PhaseSurveyOffered),
	},
	{
		Name: eventStartQandA,
		Src:  []string{string(domain.PhaseSurveyOffered)},
		Dst:  string(domain.PhaseInQandA),
	},
}

func newPhaseMachine() *fsm.FSM {
	return fsm.NewFSM(string(domain.PhaseAwaitingInitialResponse), phaseEvents, fsm.Callbacks{})
}
