package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v3/log"
	"github.com/joho/godotenv"

	"github.com/lborres/medassist"
	"github.com/lborres/medassist/internal/config"
)

// symptomFlags collects repeated -symptom name[:severity] values.
type symptomFlags []medassist.SymptomInput

func (f *symptomFlags) String() string {
	parts := make([]string, len(*f))
	for i, s := range *f {
		parts[i] = s.Name + ":" + string(s.Severity)
	}
	return strings.Join(parts, ",")
}

func (f *symptomFlags) Set(raw string) error {
	name, sev, found := strings.Cut(raw, ":")
	severity := medassist.SeverityModerate
	if found {
		parsed, err := medassist.ParseSeverity(sev)
		if err != nil {
			return err
		}
		severity = parsed
	}
	*f = append(*f, medassist.SymptomInput{Name: name, Severity: severity})
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file found")
	}
	cfg := config.Load()
	log.SetLevel(cfg.Level())

	var symptoms symptomFlags
	cmd := flag.String("cmd", "whoami", "Command: register|login|logout|whoami|diagnose|chat|health")
	server := flag.String("server", "", "Override API base URL (e.g. https://api.example.com)")
	username := flag.String("username", "", "Username (register)")
	email := flag.String("email", "", "Email or username (login), email (register)")
	password := flag.String("password", "", "Password; defaults to $MEDASSIST_PASSWORD")
	message := flag.String("message", "", "Single chat message; omit for an interactive chat")
	flag.Var(&symptoms, "symptom", "Symptom as name[:mild|moderate|severe]; repeatable")
	flag.Parse()

	if *server != "" {
		cfg.APIURL = *server
	}
	if *password == "" {
		*password = os.Getenv("MEDASSIST_PASSWORD")
	}

	ctx := context.Background()

	store, closeStore, err := cfg.OpenTokenStore(ctx)
	if err != nil {
		log.Fatalf("could not open token store: %v", err)
	}
	defer closeStore()

	client, err := medassist.New(ctx, medassist.Config{
		BaseURL:    cfg.APIURL,
		TokenStore: store,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		log.Fatalf("could not create client: %v", err)
	}

	if err := run(ctx, client, *cmd, *username, *email, *password, *message, symptoms); err != nil {
		fmt.Println("Error:", err)
		closeStore()
		os.Exit(1)
	}
}

func run(ctx context.Context, client *medassist.Client, cmd, username, email, password, message string, symptoms symptomFlags) error {
	switch cmd {
	case "register":
		if username == "" || email == "" || password == "" {
			return errors.New("-username, -email and -password are required")
		}
		if err := client.Session.Register(ctx, username, email, password); err != nil {
			return err
		}
		fmt.Println("Registered and " + signedInAs(client))

	case "login":
		if email == "" || password == "" {
			return errors.New("-email and -password are required")
		}
		if err := client.Session.Login(ctx, email, password); err != nil {
			return err
		}
		fmt.Println("Now " + signedInAs(client))

	case "logout":
		_ = client.Session.Logout(ctx)
		fmt.Println("Signed out")

	case "whoami":
		// the profile is not persisted, only the token
		if client.Session.Token() == "" {
			fmt.Println("Not signed in")
			return nil
		}
		fmt.Println("Token present; sign in again to load the profile")

	case "diagnose":
		return diagnose(ctx, client, symptoms)

	case "chat":
		return chat(ctx, client, message)

	case "health":
		if err := client.Health(ctx); err != nil {
			return err
		}
		fmt.Println("API is healthy")

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// signedInAs describes the session; a token response may omit the profile.
func signedInAs(client *medassist.Client) string {
	if u := client.Session.User(); u != nil {
		return "signed in as " + u.Username
	}
	return "signed in"
}

func diagnose(ctx context.Context, client *medassist.Client, symptoms symptomFlags) error {
	intake := client.NewIntake()
	defer intake.Close()

	for _, s := range symptoms {
		intake.AddSymptom(s.Name, s.Severity)
	}

	outcome := intake.Submit(ctx)
	switch outcome.Status {
	case medassist.SubmitSkipped:
		if errors.Is(outcome.Err, medassist.ErrNoSymptoms) {
			return errors.New("add at least one -symptom")
		}
		return outcome.Err
	case medassist.SubmitFailed:
		return outcome.Err
	}

	r := outcome.Result
	fmt.Printf("Primary diagnosis: %s (%.0f%% confidence)\n", r.PrimaryDiagnosis, r.Confidence*100)
	fmt.Printf("Analyzed symptoms: %s\n", strings.Join(r.Symptoms, ", "))
	fmt.Println("Recommendations:")
	for _, rec := range r.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
	return nil
}

func chat(ctx context.Context, client *medassist.Client, message string) error {
	conv := client.NewConversation()

	if message != "" {
		reply, err := conv.Send(ctx, message)
		if err != nil {
			return err
		}
		fmt.Println(reply.Message)
		return nil
	}

	fmt.Println("Describe your symptoms. An empty line ends the chat.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		reply, err := conv.Send(ctx, line)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Println(reply.Message)
	}
}
