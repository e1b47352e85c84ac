package usecase

// Spoken text shared by several handlers.
const (
	createListSpeech = "You can create a list by saying, create a custom list name and the name"
	getListsSpeech   = "You can get lists you created by saying, what are my custom lists"
	introSpeech      = "Welcome to the custom list demo. This demo demonstrates creating a custom list and getting custom lists you've created"

	permissionsMissingSpeech = "Alexa List permissions are missing. You can grant permissions within the Alexa app."
	listErrorSpeech          = "An error occured. Please try again later."
	listCreatedSpeech        = "List was successfully created."
	goodbyeSpeech            = "Thanks for checking out the custom list demo!"
	apologySpeech            = "Sorry, I had trouble doing what you asked. Please try again."
	reflectorSpeechPrefix    = "You just triggered "
)

// Permission scopes required by the list intents, in the order they are
// requested.
const (
	ScopeWriteHouseholdList = "write::alexa:household:list"
	ScopeReadHouseholdList  = "read::alexa:household:list"
)

// Intent and slot names from the interaction model.
const (
	IntentCreateCustomList = "CreateCustomListIntent"
	IntentGetCustomLists   = "GetCustomListsIntent"
	IntentHelp             = "AMAZON.HelpIntent"
	IntentCancel           = "AMAZON.CancelIntent"
	IntentStop             = "AMAZON.StopIntent"

	slotListName = "list_name"
)

func listPermissions() []string {
	return []string{ScopeWriteHouseholdList, ScopeReadHouseholdList}
}

func helpSpeech() string {
	return createListSpeech + " or " + getListsSpeech
}

func welcomeSpeech() string {
	return introSpeech + ". " + helpSpeech() + "."
}
