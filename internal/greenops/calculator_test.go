package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestCalculateTransportCO2(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)

	tests := []struct {
		name    string
		answers Answers
		want    float64
	}{
		{
			name:    "flight train bus round trip",
			answers: Answers{FlightKm: Float(800), TrainKm: Float(120), BusKm: Float(35)},
			want:    (800*fs.Transport[ModePlane] + 120*fs.Transport[ModeTrain] + 35*fs.Transport[ModeBus]) * 2,
		},
		{
			name:    "boat only",
			answers: Answers{BoatKm: Float(60)},
			want:    60 * fs.Transport[ModeBoat] * 2,
		},
		{
			name:    "car shared by four passengers",
			answers: Answers{CarKm: Float(100), CarType: ModeCar, CarPassengers: Int(4)},
			want:    100 * fs.Transport[ModeCar] / 4 * 2,
		},
		{
			name:    "electric car alone",
			answers: Answers{CarKm: Float(100), CarType: ModeElectricCar, CarPassengers: Int(1)},
			want:    100 * fs.Transport[ModeElectricCar] * 2,
		},
		{
			name:    "car type unanswered uses combustion factor",
			answers: Answers{CarKm: Float(100)},
			want:    100 * fs.Transport[ModeCar] * 2,
		},
		{
			name:    "zero passengers floored at one",
			answers: Answers{CarKm: Float(100), CarType: ModeCar, CarPassengers: Int(0)},
			want:    100 * fs.Transport[ModeCar] * 2,
		},
		{
			name:    "non-finite and negative distances contribute nothing",
			answers: Answers{FlightKm: Float(math.NaN()), TrainKm: Float(math.Inf(1)), BusKm: Float(-5)},
			want:    0,
		},
		{
			name:    "empty answers",
			answers: Answers{},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.CalculateTransportCO2(tt.answers), tolerance)
		})
	}
}

func TestCalculateTransportCO2_Property(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)

	for _, f := range []float64{0, 1, 12.5, 640, 10_000} {
		for _, tr := range []float64{0, 3, 250.25} {
			for _, b := range []float64{0, 42, 999} {
				got := calc.CalculateEmissions(Answers{FlightKm: Float(f), TrainKm: Float(tr), BusKm: Float(b)}, nil)
				want := (f*fs.Transport[ModePlane] + tr*fs.Transport[ModeTrain] + b*fs.Transport[ModeBus]) * 2
				assert.InDelta(t, want, got.TransportCO2, 1e-6, "flight=%v train=%v bus=%v", f, tr, b)
			}
		}
	}
}

func TestCalculateAccommodationCO2(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)

	base := Answers{
		Days:                  Int(3),
		AccommodationCategory: AccommodationHotel,
		RoomOccupancy:         OccupancyTwo,
	}
	baseline := 3 * fs.Accommodation[AccommodationHotel] * fs.RoomOccupancy[OccupancyTwo]

	t.Run("green versus conventional", func(t *testing.T) {
		green := base
		green.Electricity = ElectricityGreen
		conventional := base
		conventional.Electricity = ElectricityConventional

		greenCO2 := calc.CalculateAccommodationCO2(green)
		conventionalCO2 := calc.CalculateAccommodationCO2(conventional)

		assert.InDelta(t, baseline*fs.Energy.Green, greenCO2, tolerance)
		assert.InDelta(t, baseline*fs.Energy.Conventional, conventionalCO2, tolerance)
		assert.LessOrEqual(t, greenCO2, conventionalCO2)
	})

	t.Run("unanswered electricity is conventional", func(t *testing.T) {
		assert.InDelta(t, baseline*fs.Energy.Conventional, calc.CalculateAccommodationCO2(base), tolerance)
	})

	t.Run("missing inputs yield zero", func(t *testing.T) {
		noCategory := base
		noCategory.AccommodationCategory = ""
		noOccupancy := base
		noOccupancy.RoomOccupancy = ""
		noDays := base
		noDays.Days = nil

		assert.Zero(t, calc.CalculateAccommodationCO2(noCategory))
		assert.Zero(t, calc.CalculateAccommodationCO2(noOccupancy))
		assert.Zero(t, calc.CalculateAccommodationCO2(noDays))
	})
}

func TestCalculateFoodCO2(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)

	assert.InDelta(t, 4*fs.Food[DietRarely], calc.CalculateFoodCO2(Answers{Days: Int(4), Food: DietRarely}), tolerance)
	assert.Zero(t, calc.CalculateFoodCO2(Answers{Food: DietRarely}))
	assert.Zero(t, calc.CalculateFoodCO2(Answers{Days: Int(4)}))
	assert.Zero(t, calc.CalculateFoodCO2(Answers{Days: Int(0), Food: DietEveryDay}))
}

func TestCalculateActivitiesCO2(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)
	want := 50 * fs.Transport[ModeBoat]

	orders := [][]ProjectActivity{
		{
			{ActivityType: ModeCar, DistanceKm: -10},
			{ActivityType: ModeCar, DistanceKm: math.NaN()},
			{ActivityType: ModeBoat, DistanceKm: 0},
			{ActivityType: ModeBoat, DistanceKm: 50},
		},
		{
			{ActivityType: ModeBoat, DistanceKm: 50},
			{ActivityType: ModeBoat, DistanceKm: 0},
			{ActivityType: ModeCar, DistanceKm: math.NaN()},
			{ActivityType: ModeCar, DistanceKm: -10},
		},
		{
			{ActivityType: ModeCar, DistanceKm: math.NaN()},
			{ActivityType: ModeBoat, DistanceKm: 50},
			{ActivityType: ModeCar, DistanceKm: -10},
			{ActivityType: ModeTrain, DistanceKm: math.Inf(1)},
			{ActivityType: ModeBoat, DistanceKm: 0},
		},
	}

	for i, activities := range orders {
		assert.Equal(t, want, calc.CalculateActivitiesCO2(activities), "order %d", i)
	}
	assert.Zero(t, calc.CalculateActivitiesCO2(nil))
}

func TestCalculateEmissions(t *testing.T) {
	fs := DefaultFactors()
	calc := MustNewCalculator(fs)

	t.Run("all zero input", func(t *testing.T) {
		got := calc.CalculateEmissions(Answers{
			Days:     Int(0),
			FlightKm: Float(0),
			BoatKm:   Float(0),
			TrainKm:  Float(0),
			BusKm:    Float(0),
			CarKm:    Float(0),
		}, nil)
		assert.Zero(t, got.TotalCO2)
		assert.Zero(t, got.TreesNeeded)
	})

	t.Run("total is the sum of categories", func(t *testing.T) {
		answers := Answers{
			Days:                  Int(5),
			AccommodationCategory: AccommodationHostel,
			RoomOccupancy:         OccupancyFourOrMore,
			Electricity:           ElectricityGreen,
			Food:                  DietFewTimesWeek,
			FlightKm:              Float(1200),
			CarKm:                 Float(80),
			CarType:               ModeCar,
			CarPassengers:         Int(2),
		}
		activities := []ProjectActivity{{ActivityType: ModeBus, DistanceKm: 40}}

		got := calc.CalculateEmissions(answers, activities)

		assert.InDelta(t, got.TransportCO2+got.AccommodationCO2+got.FoodCO2+got.ProjectActivitiesCO2, got.TotalCO2, tolerance)
		assert.InDelta(t, got.TransportCO2+got.AccommodationCO2+got.FoodCO2, got.Partial(), tolerance)
		assert.Equal(t, int(math.Ceil(got.TotalCO2/fs.TreeAbsorptionPerYear)), got.TreesNeeded)
		assert.Positive(t, got.AccommodationCO2)
		assert.Positive(t, got.FoodCO2)
		assert.InDelta(t, 40*fs.Transport[ModeBus], got.ProjectActivitiesCO2, tolerance)
	})

	t.Run("idempotent", func(t *testing.T) {
		answers := Answers{Days: Int(2), Food: DietEveryDay, TrainKm: Float(333.3)}
		activities := []ProjectActivity{{ActivityType: ModeTrain, DistanceKm: 12}}
		first := calc.CalculateEmissions(answers, activities)
		second := calc.CalculateEmissions(answers, activities)
		assert.Equal(t, first, second)
	})

	t.Run("package level uses defaults", func(t *testing.T) {
		answers := Answers{BusKm: Float(10)}
		assert.Equal(t, calc.CalculateEmissions(answers, nil), CalculateEmissions(answers, nil))
	})
}

func TestTreesNeeded(t *testing.T) {
	calc := Default()

	tests := []struct {
		name  string
		total float64
		want  int
	}{
		{name: "zero needs no tree", total: 0, want: 0},
		{name: "tiny total rounds up", total: 0.01, want: 1},
		{name: "exact multiple", total: TreeAbsorptionKgPerYear * 3, want: 3},
		{name: "just above multiple", total: TreeAbsorptionKgPerYear*3 + 0.001, want: 4},
		{name: "NaN needs no tree", total: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.TreesNeeded(tt.total))
		})
	}
}

func TestAnswersClone(t *testing.T) {
	orig := Answers{Days: Int(2), CarKm: Float(10)}
	clone := orig.Clone()
	*clone.Days = 9
	*clone.CarKm = 99

	require.NotNil(t, orig.Days)
	assert.Equal(t, 2, *orig.Days)
	assert.InDelta(t, 10, *orig.CarKm, tolerance)
}

func TestHasCarTravel(t *testing.T) {
	assert.False(t, Answers{}.HasCarTravel())
	assert.False(t, Answers{CarKm: Float(0)}.HasCarTravel())
	assert.True(t, Answers{CarKm: Float(12)}.HasCarTravel())
}
