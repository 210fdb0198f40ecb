package verify

import (
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lock"
)

// Results 对应 verify_results.json。字段名与已发表的结果文件保持一致，
// 以便 claims 命令可以直接读回旧文件。
type Results struct {
	Metadata  Metadata  `json:"metadata"`
	Constants Constants `json:"constants"`

	V1  CoordinateDerivation `json:"verification_1_coordinate_derivation"`
	V2  ClockGeometry        `json:"verification_2_clock_hour_geometry"`
	V3  Centroid             `json:"verification_3_geometric_centroid"`
	V4  Proximity            `json:"verification_4_proximity_analysis"`
	V5  Statistics           `json:"verification_5_statistical_analysis"`
	V6  LockProof            `json:"verification_6_homophonic_lock_proof"`
	V7  NearEquilateral      `json:"verification_7_near_equilateral_8_10"`
	V8  ClockDistribution    `json:"verification_8_survivor_clock_distribution"`
	V9  AngularStructure     `json:"verification_9_preexisting_angular_structure"`
	V10 DateAlignments       `json:"verification_10_astronomical_date_alignments"`
}

type Metadata struct {
	Suite       string `json:"suite"`
	RunID       string `json:"run_id,omitempty"`
	GeneratedAt string `json:"generated_at"`
	ConfigPath  string `json:"config_path,omitempty"`
}

type Constants struct {
	EarthRadiusMiles float64     `json:"earth_radius_mi"`
	Anchor           geo.Point   `json:"mt_diablo"`
	DeclinationDeg   float64     `json:"mag_dec_1970_deg_east"`
	MapScale         float64     `json:"map_scale_mi_per_in"`
	Bounds           geo.Rect    `json:"map_bounds"`
	Locks            []lock.Pair `json:"locks_0_indexed"`
	CipherLength     int         `json:"cipher_length"`
}

// NamedPoint 是带名称的坐标（保持输出顺序）。
type NamedPoint struct {
	Name string `json:"name"`
	geo.Point
}

// V1

type CoordinateDerivation struct {
	Plaintext              string          `json:"plaintext"`
	DistanceInches         float64         `json:"distance_inches"`
	DistanceMiles          float64         `json:"distance_miles"`
	ClockHour              int             `json:"clock_hour"`
	MagBearingDeg          float64         `json:"mag_bearing_deg"`
	TrueBearingDeg         float64         `json:"true_bearing_deg"`
	Projected              geo.Point       `json:"projected"`
	StatedSolution         geo.Point       `json:"stated_solution"`
	Error                  DerivationError `json:"error"`
	ExactMatchThresholdDeg float64         `json:"exact_match_threshold_deg"`
	ExactMatch             bool            `json:"exact_match"`
	// SolverRank 是该短语在本次求解结果中的名次；不在幸存者中时为 0。
	SolverRank int `json:"solver_rank"`
}

type DerivationError struct {
	LatDeg   float64 `json:"lat_deg"`
	LonDeg   float64 `json:"lon_deg"`
	LatMiles float64 `json:"lat_miles"`
	LonMiles float64 `json:"lon_miles"`
}

// V2

type ClockRow struct {
	Key                   string  `json:"key"`
	Location              string  `json:"location"`
	TrueBearingDeg        float64 `json:"true_bearing_deg"`
	MagBearingDeg         float64 `json:"mag_bearing_deg"`
	ClockExact            float64 `json:"clock_exact"`
	ClockNearestHour      int     `json:"clock_nearest_hour"`
	ErrorDegToNearestHour float64 `json:"error_deg_to_nearest_hour"`
	DistanceFromAnchorMi  float64 `json:"distance_from_mt_diablo_mi"`
}

type ClockReading struct {
	MagBearingDeg float64 `json:"mag_bearing_deg"`
	ClockExact    float64 `json:"clock_exact"`
}

type VallejoSubset struct {
	LakeHermanRoad  ClockReading `json:"Lake Herman Road"`
	BlueRockSprings ClockReading `json:"Blue Rock Springs"`
}

type PresidioReading struct {
	ClockReading
	ErrorFrom8OclockDeg float64 `json:"error_from_8_oclock_deg"`
}

type ClockGeometry struct {
	Rows          []ClockRow      `json:"rows"`
	VallejoSubset VallejoSubset   `json:"vallejo_subset"`
	Z32Solution   ClockReading    `json:"z32_solution"`
	Presidio      PresidioReading `json:"presidio"`
}

// V3

type SideLength struct {
	Pair       string  `json:"pair"`
	DistanceMi float64 `json:"distance_mi"`
}

type DistanceSymmetry struct {
	AnchorToPresidioMi float64 `json:"md_to_presidio_mi"`
	BRSToLBMi          float64 `json:"brs_to_lb_mi"`
	Ratio              float64 `json:"ratio"`
}

type Centroid struct {
	CardinalPoints              []NamedPoint     `json:"cardinal_points"`
	Centroid                    geo.Point        `json:"centroid"`
	Solution                    geo.Point        `json:"solution"`
	CentroidToSolutionMi        float64          `json:"centroid_to_solution_mi"`
	SideLengthsMi               []SideLength     `json:"side_lengths_mi"`
	MaxSpanMi                   float64          `json:"max_span_mi"`
	OffsetPctOfMaxSpan          float64          `json:"offset_pct_of_max_span"`
	DistanceSymmetry            DistanceSymmetry `json:"distance_symmetry"`
	AllFourCentroid             geo.Point        `json:"all_four_crime_scenes_centroid"`
	AllFourCentroidToSolutionMi float64          `json:"all_four_centroid_to_solution_mi"`
}

// V4

type TriangleDistance struct {
	Miles     float64 `json:"miles"`
	Feet      float64 `json:"feet"`
	Meters    float64 `json:"meters"`
	MapInches float64 `json:"map_inches"`
}

type Proximity struct {
	Solution            geo.Point              `json:"solution"`
	CrimeSceneDistances []domain.SceneDistance `json:"crime_scene_distances_mi"`
	TriangleAnomaly     geo.Point              `json:"triangle_anomaly"`
	SolutionToTriangle  TriangleDistance       `json:"solution_to_triangle"`
}

// Scene 按 key 查找距离。
func (p Proximity) Scene(key string) (domain.SceneDistance, bool) {
	for _, d := range p.CrimeSceneDistances {
		if d.Key == key {
			return d, true
		}
	}
	return domain.SceneDistance{}, false
}

// V5

type ConstraintFilter struct {
	TotalCandidates int     `json:"total_candidates"`
	Survivors       int     `json:"survivors"`
	SurvivalRate    float64 `json:"survival_rate"`
	SurvivalRatePct float64 `json:"survival_rate_pct"`
}

type GeoCoincidence struct {
	TriangleAreaSqFt  float64 `json:"triangle_area_sqft"`
	TriangleAreaSqMi  float64 `json:"triangle_area_sqmi"`
	MapAreaSqMi       float64 `json:"map_area_sqmi"`
	PRandomFull       float64 `json:"p_random_full"`
	OddsFullMap       float64 `json:"odds_full_map_1_in"`
	CrimeZoneRadiusMi float64 `json:"crime_zone_radius_mi"`
	CrimeZoneAreaSqMi float64 `json:"crime_zone_area_sqmi"`
	PRandomZone       float64 `json:"p_random_zone"`
	OddsZone          float64 `json:"odds_zone_1_in"`
}

type ClockAlignment struct {
	PPresidio8OClock    float64 `json:"p_presidio_8oclock_pm2deg"`
	PTwoVallejoIn10     float64 `json:"p_two_vallejo_in_10_sector"`
	PSolutionIn10Sector float64 `json:"p_solution_in_10_sector"`
}

type JointProbability struct {
	PJoint float64 `json:"p_joint"`
	Odds   float64 `json:"odds_1_in"`
}

type Statistics struct {
	ConstraintFilter ConstraintFilter `json:"constraint_filter"`
	Geographic       GeoCoincidence   `json:"geographic_coincidence"`
	ClockAlignment   ClockAlignment   `json:"clock_alignment"`
	Joint            JointProbability `json:"joint_probability_conservative"`
}

// V6

type LetterCount struct {
	Char      string `json:"char"`
	Count     int    `json:"count"`
	Positions []int  `json:"positions"`
}

type LockProof struct {
	SolutionString    string            `json:"solution_string"`
	Length            int               `json:"length"`
	LockChecks        []lock.PairResult `json:"lock_checks"`
	AllLocksSatisfied bool              `json:"all_locks_satisfied"`
	LetterFrequency   []LetterCount     `json:"letter_frequency"`
}

// V7

type TriangleBearings struct {
	AnchorToSolution  float64 `json:"mt_diablo_to_z32"`
	AnchorToPresidio  float64 `json:"mt_diablo_to_presidio"`
	AngularSeparation float64 `json:"angular_separation"`
}

type TriangleSides struct {
	AnchorToSolution   float64 `json:"mt_diablo_to_z32"`
	AnchorToPresidio   float64 `json:"mt_diablo_to_presidio"`
	SolutionToPresidio float64 `json:"z32_to_presidio"`
}

type TriangleAngles struct {
	AtAnchor   float64 `json:"at_mt_diablo"`
	AtSolution float64 `json:"at_z32"`
	AtPresidio float64 `json:"at_presidio"`
}

type EquilateralDeviation struct {
	SidePct        TriangleSides  `json:"side_deviation_pct_from_mean"`
	AngleDeg       TriangleAngles `json:"angle_deviation_deg_from_60"`
	MaxAbsSidePct  float64        `json:"max_abs_side_deviation_pct"`
	MaxAbsAngleDeg float64        `json:"max_abs_angle_deviation_deg"`
}

type Triangle struct {
	SidesMi   TriangleSides        `json:"sides_mi"`
	AnglesDeg TriangleAngles       `json:"interior_angles_deg"`
	Deviation EquilateralDeviation `json:"deviation_from_equilateral"`
}

type Edge struct {
	Edge       string  `json:"edge"`
	DistanceMi float64 `json:"distance_mi"`
}

type Motif struct {
	Motif                  string    `json:"motif"`
	SidesMi                []Edge    `json:"sides_mi"`
	AnglesDeg              []float64 `json:"angles_deg"`
	SideDeviationPct       []float64 `json:"side_deviation_pct_from_mean"`
	AngleDeviationDeg      []float64 `json:"angle_deviation_deg_from_60"`
	MaxAbsSideDeviationPct float64   `json:"max_abs_side_deviation_pct"`
	MaxAbsAngleDeviation   float64   `json:"max_abs_angle_deviation_deg"`
}

type MonteCarlo struct {
	Region        string   `json:"region"`
	FixedEdge     string   `json:"fixed_edge"`
	ToleranceDeg  float64  `json:"tolerance_deg"`
	Samples       int      `json:"monte_carlo_samples"`
	Hits          int      `json:"hits_within_tolerance"`
	Probability   float64  `json:"probability"`
	Odds          *float64 `json:"odds_1_in"`
	StandardError float64  `json:"standard_error"`
	Seed          uint64   `json:"rng_seed"`
}

type NearEquilateral struct {
	Bearings   TriangleBearings `json:"bearings_true_deg"`
	Triangle   Triangle         `json:"triangle_md_z32_presidio"`
	Motifs     []Motif          `json:"equilateral_motif_residuals"`
	MonteCarlo MonteCarlo       `json:"random_point_equilateral_tolerance"`
}

// V8

type ClockDistribution struct {
	SurvivorTotal       int            `json:"survivor_total"`
	ByClockHour         map[string]int `json:"by_clock_hour"`
	Hour8Count          int            `json:"hour_8_count"`
	Hour10Count         int            `json:"hour_10_count"`
	Combined810Count    int            `json:"combined_8_10_count"`
	Combined810Fraction float64        `json:"combined_8_10_fraction"`
	Combined810Pct      float64        `json:"combined_8_10_pct"`
	ExpectedFraction    float64        `json:"expected_two_hours_fraction"`
	ExpectedPct         float64        `json:"expected_two_hours_pct"`
	Enrichment          float64        `json:"enrichment_vs_random"`
}

// V9

type SceneBearings struct {
	PresidioHeights float64 `json:"presidio_heights"`
	BlueRockSprings float64 `json:"blue_rock_springs"`
	LakeHermanRoad  float64 `json:"lake_herman_road"`
	Z32Solution     float64 `json:"z32_solution"`
}

type AngularStructure struct {
	Description      string        `json:"description"`
	PHBRSSeparation  float64       `json:"ph_brs_separation_deg"`
	PHBRSDelta       float64       `json:"ph_brs_delta_from_60"`
	PHLHRSeparation  float64       `json:"ph_lhr_separation_deg"`
	PHLHRDelta       float64       `json:"ph_lhr_delta_from_60"`
	PHSolSeparation  float64       `json:"ph_sol_separation_deg"`
	PHSolDelta       float64       `json:"ph_sol_delta_from_60"`
	MagneticBearings SceneBearings `json:"magnetic_bearings"`
	ClockHours       SceneBearings `json:"clock_hours"`
}

// V10

type DateAlignment struct {
	AttackDate        string `json:"attack_date"`
	AstronomicalEvent string `json:"astronomical_event"`
	EventDate         string `json:"event_date"`
	EventTimeUTC      string `json:"event_time_utc,omitempty"`
	Source            string `json:"source"`
	OffsetDays        int    `json:"offset_days"`
	Note              string `json:"note,omitempty"`
}

type TemporalTimer struct {
	Mailed             string  `json:"z32_mailed"`
	ValueMonths        float64 `json:"value_months"`
	ProjectedDate      string  `json:"projected_date_avg_month"`
	Postmark           string  `json:"thirteen_hole_postmark"`
	Received           string  `json:"thirteen_hole_received"`
	SourcePostmark     string  `json:"source_postmark"`
	SourceReceived     string  `json:"source_received"`
	OffsetFromPostmark int     `json:"offset_from_postmark_days"`
	OffsetFromReceived int     `json:"offset_from_received_days"`
}

type DateAlignments struct {
	Description     string        `json:"description"`
	LakeHermanRoad  DateAlignment `json:"lake_herman_road"`
	BlueRockSprings DateAlignment `json:"blue_rock_springs"`
	LakeBerryessa   DateAlignment `json:"lake_berryessa"`
	Timer           TemporalTimer `json:"temporal_timer"`
}
