// Command navalctl drives a naval-combat server from the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"naval-combat/internal/ai"
	"naval-combat/internal/api"
	"naval-combat/internal/constants"
	"naval-combat/internal/domain"
	"naval-combat/internal/middleware"
)

const usage = `usage: navalctl [-addr URL] [-token JWT] <command> [flags]

commands:
  start     start a match (-mode, -difficulty or -opponent)
  setup     place a random fleet (-match)
  shoot     fire at a cell (-match, -x, -y)
  move      move a ship one cell (-match, -ship, -dir)
  state     show a match (-match)
  cancel    cancel a match (-match)
  ranking   show the leaderboard (-limit)
  profile   show your profile
  token     issue a development token (-secret, -player)
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "navalctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("navalctl", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	addr := global.String("addr", envOr("NAVAL_ADDR", "http://localhost:8080"), "server base URL")
	token := global.String("token", os.Getenv("NAVAL_TOKEN"), "bearer token")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	if cmd == "token" {
		return issueToken(rest, out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()
	c := api.NewClient(*addr, *token)

	switch cmd {
	case "start":
		return start(ctx, c, rest, out)
	case "setup":
		return setup(ctx, c, rest, out)
	case "shoot":
		return shoot(ctx, c, rest, out)
	case "move":
		return move(ctx, c, rest, out)
	case "state":
		return state(ctx, c, rest, out)
	case "cancel":
		fs, matchID := matchFlags("cancel")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := c.CancelMatch(ctx, *matchID); err != nil {
			return err
		}
		fmt.Fprintln(out, "match canceled")
		return nil
	case "ranking":
		fs := flag.NewFlagSet("ranking", flag.ContinueOnError)
		limit := fs.Int("limit", constants.DefaultRankingLimit, "number of players")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		res, err := c.GetRanking(ctx, *limit)
		if err != nil {
			return err
		}
		for i, p := range res.Players {
			fmt.Fprintf(out, "%3d. %s  %6d pts  %d-%d  streak %d  %s\n",
				i+1, p.UserID, p.RankPoints, p.Wins, p.Losses, p.CurrentStreak, strings.Join(p.Medals, ","))
		}
		return nil
	case "profile":
		p, err := c.GetProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func matchFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs, fs.String("match", "", "match id")
}

func start(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	mode := fs.String("mode", string(domain.ModeClassic), "classic or dynamic")
	difficulty := fs.String("difficulty", "", "AI level: basic, intermediate or advanced")
	opponent := fs.String("opponent", "", "opponent player id for a human match")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.StartMatch(ctx, api.StartMatchRequest{Mode: *mode, AIDifficulty: *difficulty, OpponentID: *opponent})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.MatchID)
	return nil
}

func setup(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	fs, matchID := matchFlags("setup")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed for the fleet layout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleet, err := randomFleet(rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}
	res, err := c.SetupFleet(ctx, api.SetupFleetRequest{MatchID: *matchID, Ships: fleet})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "status:", res.Status)
	return nil
}

// randomFleet lays out the standard fleet at random legal positions.
func randomFleet(rng *rand.Rand) ([]api.ShipPlacement, error) {
	board := domain.NewBoard()
	if err := ai.PlaceFleet(board, rng); err != nil {
		return nil, err
	}
	var fleet []api.ShipPlacement
	for _, s := range board.Ships() {
		fleet = append(fleet, api.ShipPlacement{
			Name:        s.Name,
			Size:        s.Size,
			StartX:      s.Coordinates[0].X,
			StartY:      s.Coordinates[0].Y,
			Orientation: string(s.Orientation),
		})
	}
	return fleet, nil
}

func shoot(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	fs, matchID := matchFlags("shoot")
	x := fs.Int("x", -1, "column 0-9")
	y := fs.Int("y", -1, "row 0-9")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.Shoot(ctx, api.ShootRequest{MatchID: *matchID, X: *x, Y: *y})
	if err != nil {
		return err
	}
	printTurn(out, res)
	return nil
}

func move(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	fs, matchID := matchFlags("move")
	ship := fs.String("ship", "", "ship id")
	dir := fs.String("dir", "", "north, south, east or west")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.MoveShip(ctx, api.MoveShipRequest{MatchID: *matchID, ShipID: *ship, Direction: *dir})
	if err != nil {
		return err
	}
	printTurn(out, res)
	return nil
}

func printTurn(out io.Writer, res *api.TurnResponse) {
	if res.Shot != nil {
		fmt.Fprintf(out, "you fired at (%d, %d): %s\n", res.Shot.X, res.Shot.Y, shotText(*res.Shot))
	}
	if len(res.Moved) > 0 {
		fmt.Fprintf(out, "ship moved to %v\n", res.Moved)
	}
	for _, s := range res.AIShots {
		fmt.Fprintf(out, "AI fired at (%d, %d): %s\n", s.X, s.Y, shotText(s))
	}
	switch {
	case res.Terminated:
		fmt.Fprintf(out, "match ended by inactivity, winner %s\n", res.WinnerID)
	case res.GameOver:
		fmt.Fprintf(out, "game over, winner %s\n", res.WinnerID)
	default:
		fmt.Fprintf(out, "turn %d, next: %s\n", res.TurnNumber, res.CurrentTurnPlayerID)
	}
}

func shotText(s api.Shot) string {
	switch {
	case s.Sunk:
		return "sunk " + s.ShipName
	case s.Hit:
		return "hit"
	default:
		return "miss"
	}
}

func state(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	fs, matchID := matchFlags("state")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := c.GetMatchState(ctx, *matchID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "match %s  %s  %s  turn %d\n", st.MatchID, st.Mode, st.Status, st.TurnNumber)
	if st.IsMyTurn && st.TurnDeadline != nil {
		fmt.Fprintf(out, "your turn, %s left\n", time.Until(*st.TurnDeadline).Round(time.Second))
	}
	if st.WinnerID != "" {
		fmt.Fprintln(out, "winner:", st.WinnerID)
	}
	fmt.Fprintln(out, "\nyour fleet")
	renderBoard(out, st.MyBoard)
	fmt.Fprintln(out, "\nenemy waters")
	renderBoard(out, st.OpponentBoard)
	return nil
}

var cellGlyphs = map[string]string{"water": ".", "ship": "#", "hit": "X", "missed": "o"}

func renderBoard(out io.Writer, b api.Board) {
	fmt.Fprintln(out, "   0 1 2 3 4 5 6 7 8 9")
	for y, row := range b.Grid {
		fmt.Fprintf(out, "%2d ", y)
		for _, cell := range row {
			g, ok := cellGlyphs[cell]
			if !ok {
				g = "?"
			}
			fmt.Fprint(out, g, " ")
		}
		fmt.Fprintln(out)
	}
	for _, s := range b.Ships {
		status := "afloat"
		if s.Sunk {
			status = "sunk"
		}
		fmt.Fprintf(out, "   %s %s (%d, %s) %s\n", s.ID, s.Name, s.Size, s.Orientation, status)
	}
}

func issueToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "signing secret")
	player := fs.String("player", "", "player id (random when empty)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("a signing secret is required")
	}

	id := uuid.New()
	if *player != "" {
		var err error
		if id, err = uuid.Parse(*player); err != nil {
			return fmt.Errorf("invalid player id: %w", err)
		}
	}
	token, err := middleware.IssueToken([]byte(*secret), id, *ttl)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"playerId": id.String(), "token": token})
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
