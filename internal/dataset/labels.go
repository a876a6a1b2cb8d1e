package dataset

// Perception labels in the column order of Agent.LabelProbabilities.
const (
	LabelNotSet = iota
	LabelUnknown
	LabelDontCare
	LabelCar
	LabelVan
	LabelTram
	LabelBus
	LabelTruck
	LabelEmergencyVehicle
	LabelOtherVehicle
	LabelBicycle
	LabelMotorcycle
	LabelCyclist
	LabelMotorcyclist
	LabelPedestrian
	LabelAnimal
	LabelResearchDontCare

	NumLabels
)

var labelNames = [NumLabels]string{
	"PERCEPTION_LABEL_NOT_SET",
	"PERCEPTION_LABEL_UNKNOWN",
	"PERCEPTION_LABEL_DONTCARE",
	"PERCEPTION_LABEL_CAR",
	"PERCEPTION_LABEL_VAN",
	"PERCEPTION_LABEL_TRAM",
	"PERCEPTION_LABEL_BUS",
	"PERCEPTION_LABEL_TRUCK",
	"PERCEPTION_LABEL_EMERGENCY_VEHICLE",
	"PERCEPTION_LABEL_OTHER_VEHICLE",
	"PERCEPTION_LABEL_BICYCLE",
	"PERCEPTION_LABEL_MOTORCYCLE",
	"PERCEPTION_LABEL_CYCLIST",
	"PERCEPTION_LABEL_MOTORCYCLIST",
	"PERCEPTION_LABEL_PEDESTRIAN",
	"PERCEPTION_LABEL_ANIMAL",
	"AVRESEARCH_LABEL_DONTCARE",
}

// labelsOfInterest are the classes an agent sample can be drawn for.
var labelsOfInterest = []int{LabelCar, LabelCyclist, LabelPedestrian}

// LabelName returns the dataset name of a label index, or "" if unknown.
func LabelName(idx int) string {
	if idx < 0 || idx >= NumLabels {
		return ""
	}
	return labelNames[idx]
}

// LabelsOfInterest returns the label indices considered by the
// confidence filter.
func LabelsOfInterest() []int {
	out := make([]int, len(labelsOfInterest))
	copy(out, labelsOfInterest)
	return out
}
