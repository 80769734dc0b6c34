// package chartsuite provides the main entry point to the framework for E2E install
// and upgrade testing of Helm charts.
//
// The [Framework] is configured around a single target namespace on the cluster under
// test. It drives four sequential phases: setup (cleaning and recreating the
// namespace), an install test of the chart archive under test, an optional upgrade
// test from a published baseline version, and teardown.
//
// # Example
//
//	ctx := context.Background()
//
//	framework, err := chartsuite.New(chartsuite.Config{
//		Kubeconfig:           "./admin.conf",
//		Namespace:            "chart-under-test",
//		ChartArchive:         "./app-1.2.3.tgz",
//		HelmRepo:             "https://charts.example.com",
//		BaselineChartVersion: "1.2.2",
//	})
//	if err != nil {
//		panic(err)
//	}
//
//	err = framework.Run(ctx)
//
// # Example running phases individually
//
//	if err := framework.Setup(ctx); err != nil {
//		panic(err)
//	}
//	if err := framework.InstallTest(ctx); err != nil {
//		panic(err)
//	}
//	if err := framework.Teardown(ctx); err != nil {
//		panic(err)
//	}
package chartsuite
