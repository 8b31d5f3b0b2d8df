package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jengzang/spotmap-go/internal/app"
	"github.com/jengzang/spotmap-go/internal/mapview"
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spatial"
	"github.com/jengzang/spotmap-go/internal/spots"
	"github.com/jengzang/spotmap-go/internal/stats"
	"github.com/jengzang/spotmap-go/internal/views"
)

// multiFlag collects a repeatable string flag
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// optionalFloat is a float flag that remembers whether it was given
type optionalFloat struct {
	set bool
	val float64
}

func (o *optionalFloat) String() string {
	if !o.set {
		return ""
	}
	return fmt.Sprint(o.val)
}

func (o *optionalFloat) Set(v string) error {
	var f float64
	if _, err := fmt.Sscan(v, &f); err != nil {
		return err
	}
	o.set, o.val = true, f
	return nil
}

func (o *optionalFloat) ptr() *float64 {
	if !o.set {
		return nil
	}
	v := o.val
	return &v
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func cmdRegister(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	username := fs.String("username", "", "public username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Session.Register(ctx, *email, *password, *username); err != nil {
		return err
	}
	fmt.Fprintf(out, "registered and logged in as %s\n", a.Session.User().Username)
	return nil
}

func cmdLogin(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Session.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s\n", a.Session.User().Username)
	return nil
}

func cmdWhoami(ctx context.Context, a *app.App, out io.Writer) error {
	a.Session.CheckAuth(ctx)
	fmt.Fprintln(out, views.Header(a.Session.Snapshot()))
	if exp := a.Session.TokenExpiry(ctx); !exp.IsZero() {
		fmt.Fprintf(out, "access token expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// applyFilterFlags registers -category and -min-rating and returns the
// filter options they describe once parsed
func applyFilterFlags(fs *flag.FlagSet) func() ([]spots.FilterOption, error) {
	category := fs.String("category", "", `restrict to one category, "all" clears`)
	var minRating optionalFloat
	fs.Var(&minRating, "min-rating", "minimum rating")

	return func() ([]spots.FilterOption, error) {
		var opts []spots.FilterOption
		switch *category {
		case "":
		case "all":
			opts = append(opts, spots.AnyCategory())
		default:
			c, err := models.ParseCategory(*category)
			if err != nil {
				return nil, err
			}
			opts = append(opts, spots.WithCategory(c))
		}
		if minRating.set {
			opts = append(opts, spots.WithMinRating(minRating.val))
		}
		return opts, nil
	}
}

func loadSpots(ctx context.Context, a *app.App, opts []spots.FilterOption) error {
	a.Spots.SetFilters(ctx, opts...)
	return a.Spots.LastError()
}

func cmdSpots(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("spots")
	filters := applyFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts, err := filters()
	if err != nil {
		return err
	}
	if err := loadSpots(ctx, a, opts); err != nil {
		return err
	}

	for _, chip := range views.FilterBar(a.Spots.Filters()) {
		if chip.Active {
			fmt.Fprintf(out, "[%s] ", chip.Label)
		} else {
			fmt.Fprintf(out, " %s  ", chip.Label)
		}
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tRATING\tLAT\tLON")
	for _, s := range a.Spots.Spots() {
		rating := "-"
		if s.Rating != nil {
			rating = fmt.Sprintf("%.1f", *s.Rating)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.5f\t%.5f\n", s.ID, s.Title, s.Category.Label(), rating, s.Latitude, s.Longitude)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := stats.Summarize(a.Spots.Spots())
	fmt.Fprintf(out, "\n%d spots", sum.Total)
	for _, c := range sum.ByCategory {
		fmt.Fprintf(out, ", %s %d", c.Label, c.Count)
	}
	if sum.Rated > 0 {
		fmt.Fprintf(out, "; rating mean %.1f median %.1f", sum.MeanRating, sum.MedianRating)
	}
	fmt.Fprintf(out, "; diversity %.2f\n", sum.Diversity)
	return nil
}

func cmdShow(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("show")
	id := fs.Int64("id", 0, "spot id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	spot, err := a.Spots.GetSpot(ctx, *id)
	if err != nil {
		return err
	}
	return views.NewSpotCard(spot).Render(out)
}

func cmdAdd(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("add")
	title := fs.String("title", "", "spot title")
	category := fs.String("category", string(models.CategoryOther), "spot category")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	description := fs.String("description", "", "description")
	best := fs.String("best", "", "what is best here")
	bestTime := fs.String("best-time", "", "best time to visit")
	address := fs.String("address", "", "street address")
	price := fs.Int("price", 0, "price level 1-4")
	var rating optionalFloat
	fs.Var(&rating, "rating", "rating 0-5")
	var images multiFlag
	fs.Var(&images, "image", "image file to upload (repeatable, first is primary)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := models.ParseCategory(*category)
	if err != nil {
		return err
	}
	in := models.SpotInput{
		Title:       *title,
		Description: optionalString(*description),
		Category:    cat,
		Rating:      rating.ptr(),
		Latitude:    *lat,
		Longitude:   *lon,
		Address:     optionalString(*address),
		Best:        optionalString(*best),
		BestTime:    optionalString(*bestTime),
	}
	if *price != 0 {
		in.PriceLevel = price
	}

	var uploads []spots.ImageUpload
	for _, path := range images {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		uploads = append(uploads, spots.ImageUpload{Filename: filepath.Base(path), Content: f})
	}

	spot, err := a.Spots.CreateSpot(ctx, in, uploads...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created spot %d\n", spot.ID)
	return nil
}

func cmdDelete(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("delete")
	id := fs.Int64("id", 0, "spot id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("-id is required")
	}

	if err := a.Spots.DeleteSpot(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted spot %d\n", *id)
	return nil
}

func cmdMap(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	vp := a.Viewport()
	fs := newFlagSet("map")
	lat := fs.Float64("lat", vp.Center.Lat, "center latitude")
	lon := fs.Float64("lon", vp.Center.Lon, "center longitude")
	zoom := fs.Float64("zoom", vp.Zoom, "zoom level")
	expand := fs.Int64("expand", 0, "click the cluster with this id")
	fit := fs.Bool("fit", false, "fit the viewport to every loaded spot")
	filters := applyFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts, err := filters()
	if err != nil {
		return err
	}

	vp.Center = spatial.Point{Lat: *lat, Lon: *lon}
	vp.Zoom = *zoom

	engine := mapview.NewHeadlessEngine(a.Config.Map.AccessToken, vp)
	renderer := a.NewMap(engine, mapview.LogLayer{})
	defer renderer.Close()

	if err := loadSpots(ctx, a, opts); err != nil {
		return err
	}
	engine.Load()

	if *fit {
		fitToSpots(engine, a.Spots.Spots(), a.Config.Map.ClusterMaxZoom+1)
	}

	if *expand != 0 {
		for _, f := range renderer.ClusterView() {
			if f.Cluster && f.ClusterID == *expand {
				renderer.ClickCluster(f.ClusterID, f.Position)
				break
			}
		}
	}

	current := engine.Viewport()
	b := current.Bounds()
	fmt.Fprintf(out, "viewport %.5f,%.5f z%.1f  [%.4f,%.4f .. %.4f,%.4f]\n",
		current.Center.Lat, current.Center.Lon, current.Zoom, b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tCOUNT\tLAT\tLON\tLABEL")
	for _, f := range renderer.ClusterView() {
		if f.Cluster {
			fmt.Fprintf(tw, "cluster\t%d\t%d\t%.5f\t%.5f\t\n", f.ClusterID, f.PointCount, f.Position.Lat, f.Position.Lon)
			continue
		}
		fmt.Fprintf(tw, "spot\t%d\t1\t%.5f\t%.5f\t%s\n", f.SpotID, f.Position.Lat, f.Position.Lon, f.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "markers: %v\n", renderer.LiveMarkerIDs())
	return nil
}

func fitToSpots(engine *mapview.HeadlessEngine, all []models.Spot, maxZoom int) {
	if len(all) == 0 {
		return
	}
	points := make([]spatial.Point, 0, len(all))
	for _, s := range all {
		points = append(points, spatial.Point{Lat: s.Latitude, Lon: s.Longitude})
	}
	vp := engine.Viewport()
	b := spatial.BoundingBox(points)
	engine.JumpTo(b.Center(), spatial.FitZoom(b, vp.Width, vp.Height, float64(maxZoom)))
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
