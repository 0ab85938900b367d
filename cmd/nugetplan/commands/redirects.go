package commands

import (
	"encoding/xml"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/nugetplan/bindingredirect"
	"github.com/willibrandon/nugetplan/cmd/nugetplan/output"
)

type redirectsOptions struct {
	json bool
	xml  bool
}

// NewRedirectsCommand creates the redirects command
func NewRedirectsCommand(console *output.Console) *cobra.Command {
	opts := &redirectsOptions{}

	cmd := &cobra.Command{
		Use:   "redirects <manifest.json>",
		Short: "Compute assembly binding redirects",
		Long: `Read an assembly manifest listing the assemblies of an application and the
assemblies each one references, and print the binding redirects it needs.

With --xml the redirects are printed as an <assemblyBinding> element ready to
paste into the <runtime> section of app.config or web.config.

Examples:
  nugetplan redirects bin/assemblies.json
  nugetplan redirects bin/assemblies.json --xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedirects(console, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Write JSON to stdout")
	cmd.Flags().BoolVar(&opts.xml, "xml", false, "Write an <assemblyBinding> config element")
	cmd.MarkFlagsMutuallyExclusive("json", "xml")
	return cmd
}

func runRedirects(console *output.Console, opts *redirectsOptions, manifest string) error {
	start := time.Now()

	assemblies, err := bindingredirect.LoadManifestFile(manifest)
	if err != nil {
		return err
	}
	bindings := bindingredirect.GetBindingRedirects(assemblies)

	switch {
	case opts.json:
		out := output.RedirectsOutput{
			SchemaVersion: output.SchemaVersion,
			Manifest:      manifest,
			Redirects:     make([]output.BindingRedirect, 0, len(bindings)),
		}
		for _, b := range bindings {
			out.Redirects = append(out.Redirects, output.BindingRedirect{
				Name:           b.Name,
				PublicKeyToken: b.PublicKeyToken,
				Culture:        b.Culture,
				OldVersion:     b.OldVersion(),
				NewVersion:     b.NewVersion(),
			})
		}
		out.ElapsedMs = output.MeasureElapsed(start)
		return output.WriteJSON(console.Out(), out)

	case opts.xml:
		return writeAssemblyBinding(console, bindings)
	}

	if len(bindings) == 0 {
		console.Info("No binding redirects needed.")
		return nil
	}
	console.Header("%d binding redirects:", len(bindings))
	for _, b := range bindings {
		console.Printf("  %s\n", b)
	}
	return nil
}

type assemblyBindingXML struct {
	XMLName    xml.Name               `xml:"urn:schemas-microsoft-com:asm.v1 assemblyBinding"`
	Dependents []dependentAssemblyXML `xml:"dependentAssembly"`
}

type dependentAssemblyXML struct {
	Identity struct {
		Name           string `xml:"name,attr"`
		PublicKeyToken string `xml:"publicKeyToken,attr"`
		Culture        string `xml:"culture,attr"`
	} `xml:"assemblyIdentity"`
	Redirect struct {
		OldVersion string `xml:"oldVersion,attr"`
		NewVersion string `xml:"newVersion,attr"`
	} `xml:"bindingRedirect"`
}

func writeAssemblyBinding(console *output.Console, bindings []bindingredirect.AssemblyBinding) error {
	doc := assemblyBindingXML{}
	for _, b := range bindings {
		var d dependentAssemblyXML
		d.Identity.Name = b.Name
		d.Identity.PublicKeyToken = b.PublicKeyToken
		d.Identity.Culture = b.Culture
		if d.Identity.Culture == "" {
			d.Identity.Culture = "neutral"
		}
		d.Redirect.OldVersion = b.OldVersion()
		d.Redirect.NewVersion = b.NewVersion()
		doc.Dependents = append(doc.Dependents, d)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	console.Println(string(data))
	return nil
}
