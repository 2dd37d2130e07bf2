package sqlinline

const QSelectModelCredential = `--sql 1bb2c980-63c3-44d4-8441-47f0082695f0
select token
from model_credentials
where provider = $1::text
limit 1;
`

const QUpsertModelCredential = `--sql b19a070e-4546-4ac7-a0e6-539ae0486020
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into model_credentials (provider, token, properties, created_at, updated_at)
select provider, token, properties, now(), now()
from incoming
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
