package sqlinline

const QSelectSubscription = `--sql 736ba39a-7208-40ca-b325-b4e57eed6e06
select
    user_id::text,
    plan,
    daily_usage_count,
    coalesce(last_reset_date::text, '') as last_reset_date
from subscribe
where user_id = $1::uuid
limit 1;
`

// QConsumeDailyUsage increments today's counter only while the effective
// usage (zero when last_reset_date is not today) is below the ceiling. The
// row lock taken by UPDATE makes check and increment one step.
const QConsumeDailyUsage = `--sql ee072a6b-5820-4427-b63f-460417fba275
update subscribe
set daily_usage_count = case
        when last_reset_date = $2::date then daily_usage_count + 1
        else 1
    end,
    last_reset_date = $2::date,
    updated_at = now()
where user_id = $1::uuid
  and (case when last_reset_date = $2::date then daily_usage_count else 0 end) < $3::int
returning daily_usage_count;
`

const QUpsertSubscriptionPlan = `--sql a818076a-d1d7-43d0-ad07-944bf80228b6
insert into subscribe (user_id, plan, daily_usage_count, last_reset_date, created_at, updated_at)
values ($1::uuid, $2::text, 0, $3::date, now(), now())
on conflict (user_id) do update set
    plan = excluded.plan,
    daily_usage_count = case when $4::boolean then 0 else subscribe.daily_usage_count end,
    last_reset_date = case when $4::boolean then excluded.last_reset_date else subscribe.last_reset_date end,
    updated_at = now()
returning user_id::text, plan, daily_usage_count, coalesce(last_reset_date::text, '');
`

const QCreateSubscribeTable = `--sql 9ac096f3-43dc-47c2-8c3a-8e7b4c7e6adc
create table if not exists subscribe (
    user_id           uuid primary key,
    plan              text not null default 'free',
    daily_usage_count integer not null default 0 check (daily_usage_count >= 0),
    last_reset_date   date,
    created_at        timestamptz not null default now(),
    updated_at        timestamptz not null default now()
);
`
