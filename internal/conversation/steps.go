package conversation

// Step identifies the current stage of a report conversation. Each step
// accepts exactly one kind of input; everything else re-prompts without a
// state change.
type Step string

const (
	StepAnimalType      Step = "animal-type"
	StepPhoto           Step = "photo"
	StepPhotoConfirm    Step = "photo-confirm"
	StepSituation       Step = "situation"
	StepSituationDetail Step = "situation-detail"
	StepDatetime        Step = "datetime"
	StepLocation        Step = "location"
	StepLandmarkSelect  Step = "landmark-select"
	StepConfirm         Step = "confirm"
	StepCorrection      Step = "correction"
	StepPhoneNumber     Step = "phone-number"
	StepCompleted       Step = "completed"
)

// AnimalType is the closed set of reportable animals.
type AnimalType string

const (
	AnimalBoar   AnimalType = "boar"
	AnimalDeer   AnimalType = "deer"
	AnimalMonkey AnimalType = "monkey"
	AnimalBear   AnimalType = "bear"
	AnimalOther  AnimalType = "other"
)

var animalLabels = map[AnimalType]string{
	AnimalBoar:   "イノシシ",
	AnimalDeer:   "シカ",
	AnimalMonkey: "サル",
	AnimalBear:   "クマ",
	AnimalOther:  "その他",
}

// animalOrder fixes the button ordering in prompts.
var animalOrder = []AnimalType{AnimalBoar, AnimalDeer, AnimalMonkey, AnimalBear, AnimalOther}

// ParseAnimalType resolves a postback value to a recognized animal type.
func ParseAnimalType(value string) (AnimalType, bool) {
	animal := AnimalType(value)
	_, ok := animalLabels[animal]
	return animal, ok
}

// Label returns the user-facing name of an animal type.
func (a AnimalType) Label() string {
	if label, ok := animalLabels[a]; ok {
		return label
	}
	return string(a)
}
