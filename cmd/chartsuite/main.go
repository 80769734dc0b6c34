package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chartsuite/chartsuite"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.Red("FAILED: %v", err)
		os.Exit(1)
	}
	color.Green("PASSED")
}

func newRootCommand() *cobra.Command {
	config := chartsuite.Config{}

	cmd := &cobra.Command{
		Use:           "chartsuite",
		Short:         "Test tool for Helm chart installation and upgrade",
		Long:          "chartsuite installs, optionally upgrades and finally tears down a Helm chart\non the Kubernetes cluster pointed to by the provided admin kubeconfig,\nwaiting for the cluster to converge after every step.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// helm and kubectl child processes resolve the target cluster from KUBECONFIG
			if err := os.Setenv("KUBECONFIG", config.Kubeconfig); err != nil {
				return err
			}

			framework, err := chartsuite.New(config)
			if err != nil {
				return err
			}
			return framework.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&config.Kubeconfig, "kubernetes-admin-conf", "k", "", "Kubernetes admin conf to use")
	flags.StringVarP(&config.Namespace, "kubernetes-namespace", "n", "", "Kubernetes namespace to use")
	flags.StringVarP(&config.ReleaseName, "helm-release-name", "m", chartsuite.DefaultReleaseName, "Helm release name to be used for installation")
	flags.StringVarP(&config.ChartArchive, "chart-archive", "a", "", "Helm chart archive to test")
	flags.StringVarP(&config.DependencyChartArchive, "dependency-chart-archive", "d", "", "Helm chart archive containing the implicit dependencies of the chart under test")
	flags.StringVarP(&config.HelmRepo, "helm-repo", "r", "", "Helm chart repository to get the baseline from")
	flags.StringVarP(&config.BaselineChartVersion, "baseline-chart-version", "b", "", "Version of the baseline chart to upgrade from, mandatory unless --skip-upgrade-test is used")
	flags.BoolVarP(&config.SkipUpgradeTest, "skip-upgrade-test", "z", false, "Skip upgrade test, needed if there is no baseline yet to upgrade from")
	flags.StringVarP(&config.DockerConfig, "docker-config-json", "c", "", "Path to the config.json containing credentials for the container registry")

	cobra.CheckErr(cmd.MarkFlagRequired("kubernetes-admin-conf"))
	cobra.CheckErr(cmd.MarkFlagRequired("kubernetes-namespace"))
	cobra.CheckErr(cmd.MarkFlagRequired("chart-archive"))
	cobra.CheckErr(cmd.MarkFlagRequired("helm-repo"))

	return cmd
}
