package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"

	"tryon/internal/bootstrap"
	"tryon/internal/infra"
)

var chiLambda *chiadapter.ChiLambda

// init runs once per container so warm invocations reuse the pool and clients.
func init() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	svc, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	chiLambda = chiadapter.New(svc.Router)
}

// Handler serves API Gateway proxy events through the chi router.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return chiLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
