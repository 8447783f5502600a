// Package config loads and validates the JSON configuration document a run
// is started from (spec §6) and turns it into the core/qp/planner/assign
// types the rest of the system operates on.
package config

import (
	"github.com/spf13/viper"
)

// Document is the raw shape of the configuration file, field-for-field
// against spec §6's recognized key list. Loaded via viper the way
// FromYaml in this codebase's lineage loads training configs: a scoped
// *viper.Viper instance pointed at one file, unmarshaled into a plain
// struct (internal/config never touches viper's global singleton).
type Document struct {
	N    int         `mapstructure:"N"`
	Ncmd int         `mapstructure:"Ncmd"`
	Po   [][3]float64 `mapstructure:"po"`
	Pf   [][3]float64 `mapstructure:"pf"`

	Solver           string `mapstructure:"solver"`
	CollisionMethod  string `mapstructure:"collision_method"`

	// Bezier
	Degree          int     `mapstructure:"d"`
	NumSegments     int     `mapstructure:"num_segments"`
	Dim             int     `mapstructure:"dim"`
	DegPoly         int     `mapstructure:"deg_poly"`
	TSegment        float64 `mapstructure:"t_segment"`

	// Dynamics model
	ZetaXY float64 `mapstructure:"zeta_xy"`
	TauXY  float64 `mapstructure:"tau_xy"`
	ZetaZ  float64 `mapstructure:"zeta_z"`
	TauZ   float64 `mapstructure:"tau_z"`

	// MPC timing
	H    float64 `mapstructure:"h"`
	Ts   float64 `mapstructure:"ts"`
	KHor int     `mapstructure:"k_hor"`

	// MPC cost weights
	SFree    float64 `mapstructure:"s_free"`
	SObs     float64 `mapstructure:"s_obs"`
	SRepel   float64 `mapstructure:"s_repel"`
	SpdF     float64 `mapstructure:"spd_f"`
	SpdO     float64 `mapstructure:"spd_o"`
	SpdR     float64 `mapstructure:"spd_r"`
	LinColl  float64 `mapstructure:"lin_coll"`
	QuadColl float64 `mapstructure:"quad_coll"`
	AccCost  float64 `mapstructure:"acc_cost"`

	// MPC box limits
	PMin [3]float64 `mapstructure:"pmin"`
	PMax [3]float64 `mapstructure:"pmax"`
	AMin [3]float64 `mapstructure:"amin"`
	AMax [3]float64 `mapstructure:"amax"`

	// Collision geometry, commanded bodies
	Order         int     `mapstructure:"order"`
	RMin          float64 `mapstructure:"rmin"`
	HeightScaling float64 `mapstructure:"height_scaling"`

	// Collision geometry, uncommanded bodies
	OrderObs         int     `mapstructure:"order_obs"`
	RMinObs          float64 `mapstructure:"rmin_obs"`
	HeightScalingObs float64 `mapstructure:"height_scaling_obs"`

	// Noise
	StdPosition float64 `mapstructure:"std_position"`
	StdVelocity float64 `mapstructure:"std_velocity"`
	Seed        int64   `mapstructure:"seed"` // supplemental: not in spec.md's key list, needed for reproducible noise

	// Test instance generation
	Test string `mapstructure:"test"`

	// Goal motion
	MotionType             string  `mapstructure:"motion_type"`
	GoalCircularRadius     float64 `mapstructure:"goal_circular_radius"`
	GoalCircularOmega      float64 `mapstructure:"goal_circular_omega"`
	GoalTranslationVel     [3]float64 `mapstructure:"goal_translation_velocity"`

	// Reallocation
	ReallocationEnabled bool    `mapstructure:"reallocation_enabled"`
	ReallocationPeriod  float64 `mapstructure:"reallocation_period"`
	UsePredictive       bool    `mapstructure:"_use_predictive"`
	PredictionHorizon   float64 `mapstructure:"prediction_horizon"`

	// Audit
	CollisionCheckRMin          float64 `mapstructure:"collision_check_rmin"`
	CollisionCheckOrder         int     `mapstructure:"collision_check_order"`
	CollisionCheckHeightScaling float64 `mapstructure:"collision_check_height_scaling"`
	GoalTolerance               float64 `mapstructure:"goal_tolerance"`

	// Duration + outputs
	SimulationDuration     float64  `mapstructure:"simulation_duration"`
	OutputTrajectoriesPaths []string `mapstructure:"output_trajectories_paths"`
	OutputGoalsPaths        []string `mapstructure:"output_goals_paths"`
	ReallocationLogPath     string   `mapstructure:"reallocation_log_path"` // supplemental: §6 names the CSV format but not its path key explicitly
}

// Load reads and parses the configuration document at path (spec §6: JSON
// document, recognized keys). It does not validate field values; call
// Document.Build for that.
func Load(path string) (*Document, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("json")

	if err := vp.ReadInConfig(); err != nil {
		return nil, &Error{Stage: "read", Path: path, Err: err}
	}

	doc := &Document{}
	if err := vp.Unmarshal(doc); err != nil {
		return nil, &Error{Stage: "unmarshal", Path: path, Err: err}
	}
	return doc, nil
}
